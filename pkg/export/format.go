package export

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/palette"
)

// Format is an export format.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatYAML, FormatDOT, FormatSVG, FormatJSON}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "application/json"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown export format %q (valid: yaml, dot, svg, json)", s)
}

// Render encodes the analysis in format f. colors resolves detection kind
// colors for the visual formats.
func Render(ctx context.Context, f Format, a *graph.Analysis, colors *palette.Registry, opts DOTOptions) ([]byte, error) {
	if f == FormatYAML {
		return YAML(a)
	}

	els, err := annotate.Map(a, colors)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatDOT:
		return []byte(ToDOT(els, opts)), nil
	case FormatSVG:
		svg, err := RenderSVG(ctx, ToDOT(els, opts))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return svg, nil
	case FormatJSON:
		data, err := json.MarshalIndent(els, "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode elements")
		}
		return data, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown export format %q", f)
	}
}

// Write renders the analysis and writes it to w.
func Write(ctx context.Context, w io.Writer, f Format, a *graph.Analysis, colors *palette.Registry, opts DOTOptions) error {
	data, err := Render(ctx, f, a, colors, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
