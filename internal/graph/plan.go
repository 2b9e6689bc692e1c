package graph

import (
	"context"
	"log/slog"

	"reelforge/internal/docstore"
	"reelforge/internal/logging"
	"reelforge/internal/postprocess"
	"reelforge/internal/resource"
)

// Plan is the full mutation set of one graph operation.
type Plan struct {
	order    []string
	upserts  map[string]*resource.Item
	deletes  []string
	payloads []string
	journal  []postprocess.Entry
}

func newPlan() *Plan {
	return &Plan{upserts: make(map[string]*resource.Item)}
}

// Put stages item for writing. Staging the same id again keeps its first
// position.
func (p *Plan) Put(item *resource.Item) {
	if _, ok := p.upserts[item.ID]; !ok {
		p.order = append(p.order, item.ID)
	}
	p.upserts[item.ID] = item
}

// Delete stages a record deletion and drops any pending write for it.
func (p *Plan) Delete(id string) {
	if _, ok := p.upserts[id]; ok {
		delete(p.upserts, id)
		for i, staged := range p.order {
			if staged == id {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
	for _, existing := range p.deletes {
		if existing == id {
			return
		}
	}
	p.deletes = append(p.deletes, id)
}

// RemovePayload stages deletion of the binary payload and thumbnail for id.
func (p *Plan) RemovePayload(id string) {
	p.payloads = append(p.payloads, id)
}

// Journal stages post-processor journal entries.
func (p *Plan) Journal(entries ...postprocess.Entry) {
	p.journal = append(p.journal, entries...)
}

// Upserts returns the staged writes in staging order.
func (p *Plan) Upserts() []*resource.Item {
	out := make([]*resource.Item, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.upserts[id])
	}
	return out
}

// UpsertIDs returns the ids of staged writes in staging order.
func (p *Plan) UpsertIDs() []string {
	return append([]string(nil), p.order...)
}

// Deletes returns the staged record deletions.
func (p *Plan) Deletes() []string {
	return append([]string(nil), p.deletes...)
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	return len(p.order) == 0 && len(p.deletes) == 0 && len(p.payloads) == 0
}

// apply writes the plan: upserts, then deletions, then payload removal, then
// the journal. Payload removal failures are logged and skipped.
func (s *Store) apply(ctx context.Context, plan *Plan) error {
	for _, item := range plan.Upserts() {
		if err := s.docs.Put(ctx, docstore.Resources, item.ID, item); err != nil {
			return err
		}
	}
	if len(plan.deletes) > 0 {
		if _, err := s.docs.Remove(ctx, docstore.Resources, plan.deletes...); err != nil {
			return err
		}
	}
	for _, id := range plan.payloads {
		if s.payloads == nil {
			break
		}
		if err := s.payloads.Remove(id); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "payload removal failed", "payload_remove_failed",
				logging.String(logging.FieldResourceID, id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the file manually from the media directory"),
				logging.String(logging.FieldImpact, "orphaned payload left on disk"),
			)
		}
	}
	if err := s.pipeline.Record(ctx, plan.journal); err != nil {
		return err
	}
	s.logger.Debug("plan applied",
		slog.Int("upserts", len(plan.order)),
		slog.Int("deletes", len(plan.deletes)),
		slog.Int("payloads", len(plan.payloads)),
	)
	return nil
}
