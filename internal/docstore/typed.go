package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// FindAll decodes every document in collection matching preds into T.
func FindAll[T any](ctx context.Context, s *Store, collection string, preds ...Predicate) ([]*T, error) {
	bodies, err := s.Find(ctx, collection, preds...)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(bodies))
	for _, body := range bodies {
		value := new(T)
		if err := json.Unmarshal(body, value); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		out = append(out, value)
	}
	return out, nil
}

// GetOne decodes a single document into T. It returns nil, nil when the
// document does not exist.
func GetOne[T any](ctx context.Context, s *Store, collection, id string) (*T, error) {
	body, err := s.Get(ctx, collection, id)
	if err != nil || body == nil {
		return nil, err
	}
	value := new(T)
	if err := json.Unmarshal(body, value); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return value, nil
}
