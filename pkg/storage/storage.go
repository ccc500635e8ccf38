// Package storage persists analyses submitted to the server.
//
// Implementations:
//   - [MemoryStore]: in-process map for development and tests
//   - [FileStore]: one JSON document per analysis under a directory
//   - [MongoStore]: MongoDB collection for multi-instance deployments
//
// Records are addressed by an opaque ID (a UUID when the server assigns
// one). IDs are validated with errors.ValidateAnalysisID before they reach
// a backend.
package storage

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/archmap/pkg/graph"
)

// ErrNotFound is returned when no analysis is stored under an ID.
var ErrNotFound = errors.New("analysis not found")

// Record is a stored analysis.
type Record struct {
	ID        string          `json:"id" bson:"_id"`
	Name      string          `json:"name,omitempty" bson:"name,omitempty"`
	Analysis  *graph.Analysis `json:"analysis" bson:"analysis"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
}

// Summary describes a record without its payload.
type Summary struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name,omitempty" bson:"name,omitempty"`
	Nodes      int       `json:"nodes" bson:"nodes"`
	Edges      int       `json:"edges" bson:"edges"`
	Detections int       `json:"detections" bson:"detections"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Store persists analyses.
type Store interface {
	// Save inserts or replaces a record. An empty ID is filled with a new UUID
	// and a zero CreatedAt with the current time.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record stored under id or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns summaries, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NewRecord wraps an analysis in a record with a fresh ID.
func NewRecord(name string, a *graph.Analysis) *Record {
	return &Record{ID: uuid.NewString(), Name: name, Analysis: a, CreatedAt: time.Now().UTC()}
}

// Summarize builds the summary of a record.
func (r *Record) Summarize() Summary {
	s := Summary{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
	if r.Analysis != nil {
		s.Nodes = len(r.Analysis.Graph.Nodes)
		s.Edges = len(r.Analysis.Graph.Edges)
		s.Detections = len(r.Analysis.Detections)
	}
	return s
}

// prepare fills defaults before a save.
func prepare(rec *Record) error {
	if rec == nil {
		return errors.New("storage: nil record")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return nil
}

// newestFirst sorts summaries by creation time descending, then by ID, and
// applies limit.
func newestFirst(out []Summary, limit int) []Summary {
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
