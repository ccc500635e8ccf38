package server

import (
	"context"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/buildinfo"
	"github.com/matzehuels/archmap/pkg/cache"
	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/export"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Get().Version,
	})
}

func (s *Server) handleLayouts(w http.ResponseWriter, _ *http.Request) {
	out := make([]layout.Config, 0, len(layout.Names()))
	for _, name := range layout.Names() {
		out = append(out, layout.ConfigFor(name))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default": s.opts.View.Layout,
		"layouts": out,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !layout.Known(name) {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidLayout,
			"unknown layout %q (valid: %s)", name, strings.Join(layout.Names(), ", ")))
		return
	}
	writeJSON(w, http.StatusOK, layout.ConfigFor(name))
}

func (s *Server) handlePalette(w http.ResponseWriter, _ *http.Request) {
	reg := s.opts.Palette()
	fixed := palette.FixedColors()
	kinds := make([]string, 0, len(fixed))
	for k := range fixed {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	colors := make(map[string]palette.Color, len(kinds))
	for _, k := range kinds {
		colors[k] = reg.ColorFor(k)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fixed":    colors,
		"fallback": palette.FallbackColors(),
		"neutral":  palette.Neutral,
	})
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.Server.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidPayload, err, "read body"))
		return
	}
	a, err := graph.UnmarshalAnalysis(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec := storage.NewRecord(r.URL.Query().Get("name"), a)
	if err := s.opts.Store.Save(r.Context(), rec); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "save analysis"))
		return
	}
	if client := clientSession(r); client != "" {
		if err := s.rememberLast(r.Context(), client, rec.ID); err != nil {
			s.logger.Warn("remember last analysis", "client", client, "err", err)
		}
	}
	s.logger.Info("analysis stored", "id", rec.ID, "nodes", len(a.Graph.Nodes), "detections", len(a.Detections))

	w.Header().Set("Location", "/api/analyses/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec.Summarize())
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.opts.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "list analyses"))
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// record loads the analysis named by the {id} URL parameter.
func (s *Server) record(r *http.Request) (*storage.Record, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateAnalysisID(id); err != nil {
		return nil, err
	}
	return s.opts.Store.Get(r.Context(), id)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateAnalysisID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.opts.Store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete analysis"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	els, err := s.elements(r.Context(), rec.Analysis)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, els)
}

// elements maps a through the element cache, keyed by the analysis content
// and palette.
func (s *Server) elements(ctx context.Context, a *graph.Analysis) (*annotate.Elements, error) {
	raw, err := graph.MarshalAnalysis(a)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash analysis")
	}
	key := s.opts.Keys.ElementsKey(cache.Hash(raw), cache.ElementsKeyOpts{Palette: s.opts.PaletteID})

	var els annotate.Elements
	if ok, err := cache.GetJSON(ctx, s.opts.Cache, key, &els); err != nil {
		s.logger.Warn("element cache read", "err", err)
	} else if ok {
		return &els, nil
	}

	mapped, err := annotate.Map(a, s.opts.Palette())
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.opts.Cache, key, mapped, s.opts.CacheTTL); err != nil {
		s.logger.Warn("element cache write", "err", err)
	}
	return mapped, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, annotate.ComputeStats(rec.Analysis))
}

type kindColor struct {
	Kind  string        `json:"kind"`
	Color palette.Color `json:"color"`
	Fixed bool          `json:"fixed"`
	Count int           `json:"count"`
}

// handleColors lists the detection kinds of an analysis with the colors a
// fresh registry assigns them, in first-seen order.
func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kindColors(rec.Analysis, s.opts.Palette()))
}

func kindColors(a *graph.Analysis, reg *palette.Registry) []kindColor {
	annotate.AssignColors(a, reg)
	out := []kindColor{}
	index := map[string]int{}
	for _, d := range a.Detections {
		k := palette.Normalize(d.Kind)
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, kindColor{Kind: k, Color: reg.ColorFor(k), Fixed: reg.IsFixed(k), Count: 1})
	}
	return out
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	opts := export.DOTOptions{
		Detailed: q.Get("detailed") == "true" || q.Get("detailed") == "1",
		RankDir:  strings.ToUpper(q.Get("rankdir")),
	}
	data, err := export.Render(r.Context(), f, rec.Analysis, s.opts.Palette(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	if q.Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+rec.ID+"."+string(f)+`"`)
	}
	_, _ = w.Write(data)
}

func (s *Server) handleLastAnalysis(w http.ResponseWriter, r *http.Request) {
	client := clientSession(r)
	if client == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing %s header or session parameter", SessionHeader))
		return
	}
	if err := errors.ValidateSessionID(client); err != nil {
		s.writeError(w, r, err)
		return
	}

	var id string
	ok, err := cache.GetJSON(r.Context(), s.opts.Cache, s.opts.Keys.LastAnalysisKey(client), &id)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "read last analysis"))
		return
	}
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no analysis recorded for this session"))
		return
	}
	rec, err := s.opts.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Summarize())
}

func (s *Server) rememberLast(ctx context.Context, client, id string) error {
	if err := errors.ValidateSessionID(client); err != nil {
		return err
	}
	return cache.SetJSON(ctx, s.opts.Cache, s.opts.Keys.LastAnalysisKey(client), id, s.opts.CacheTTL)
}

func clientSession(r *http.Request) string {
	if v := r.Header.Get(SessionHeader); v != "" {
		return v
	}
	return r.URL.Query().Get("session")
}
