package graph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/docstore"
	"reelforge/internal/logging"
	"reelforge/internal/payload"
	"reelforge/internal/postprocess"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// Store performs graph operations against a document store.
type Store struct {
	docs     *docstore.Store
	payloads *payload.Store
	pipeline *postprocess.Pipeline
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how new group ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New returns a graph Store. payloads and pipeline may be nil.
func New(docs *docstore.Store, payloads *payload.Store, pipeline *postprocess.Pipeline, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		docs:     docs,
		payloads: payloads,
		pipeline: pipeline,
		logger:   logging.NewComponentLogger(logger, "graph"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Docs exposes the underlying document store.
func (s *Store) Docs() *docstore.Store { return s.docs }

// Pipeline exposes the post-processor pipeline.
func (s *Store) Pipeline() *postprocess.Pipeline { return s.pipeline }

// Get loads one record, failing with ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (*resource.Item, error) {
	item, err := docstore.GetOne[resource.Item](ctx, s.docs, docstore.Resources, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("get", id)
	}
	return item, nil
}

// Filter narrows List.
type Filter struct {
	Type           resource.Kind
	GroupID        string
	EpisodeID      string
	Tag            string
	IDs            []string
	IncludeRemoved bool
}

func (f Filter) predicates() []docstore.Predicate {
	var preds []docstore.Predicate
	if f.Type != "" {
		preds = append(preds, docstore.Eq("type", string(f.Type)))
	}
	if f.GroupID != "" {
		preds = append(preds, docstore.Eq("resourceGroupId", f.GroupID))
	}
	if f.EpisodeID != "" {
		preds = append(preds, docstore.Or(docstore.Empty("episodeIds"), docstore.Contains("episodeIds", f.EpisodeID)))
	}
	if f.Tag != "" {
		preds = append(preds, docstore.Contains("tags", f.Tag))
	}
	if f.IDs != nil {
		preds = append(preds, docstore.In("id", f.IDs...))
	}
	if !f.IncludeRemoved {
		preds = append(preds, docstore.Eq("removed", false))
	}
	return preds
}

// List returns the records matching filter in insertion order.
func (s *Store) List(ctx context.Context, filter Filter) ([]*resource.Item, error) {
	return docstore.FindAll[resource.Item](ctx, s.docs, docstore.Resources, filter.predicates()...)
}

func notFound(op, id string) error {
	return services.Wrap(services.ErrNotFound, "graph", op, fmt.Sprintf("resource %q not found", id), nil)
}

func typeMismatch(op, id string, want resource.Kind) error {
	return services.Wrap(services.ErrTypeMismatch, "graph", op, fmt.Sprintf("resource %q is not a %s", id, want), nil)
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(existing string) bool { return existing == id })
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
