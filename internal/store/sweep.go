package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

// Sweep settles journalled Part entries left by interrupted writes. An
// entry still listed by a committed head is kept; any other is deleted.
// Drafts currently being written by this Store are skipped, and so are drafts
// that left the journal after the snapshot was taken. It returns the number
// of entries deleted.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	if s.journal == nil {
		return 0, nil
	}

	pending, err := s.journal.Pending(ctx)
	if err != nil {
		return 0, err
	}

	var drafts []string
	byDraft := make(map[string][]models.StagedPart)
	for _, p := range pending {
		if _, seen := byDraft[p.DraftID]; !seen {
			drafts = append(drafts, p.DraftID)
		}
		byDraft[p.DraftID] = append(byDraft[p.DraftID], p)
	}

	removed := 0

	for _, draft := range drafts {
		if _, busy := s.active.Load(draft); busy {
			continue
		}

		pendingNow, err := s.stillPending(ctx, draft)
		if err != nil {
			return removed, err
		}
		if !pendingNow {
			continue
		}

		// Listings are taken per draft, after the active check. A draft that
		// was still being written when Pending ran has committed its head by
		// the time it leaves the active set.
		referenced := make(map[string]map[string]bool)
		settled := true
		for _, p := range byDraft[draft] {
			refs, err := s.referencedParts(ctx, p.BoxID, referenced)
			if errors.Is(err, common.ErrorNotFound) {
				// the box is gone and its entries with it
				continue
			}
			if err != nil {
				return removed, err
			}
			if refs[p.EntryID] {
				continue
			}

			if err := s.deleteEntry(ctx, p.BoxID, p.EntryID); err != nil {
				s.logger.Warn(ctx, "sweep failed to remove part", "box", p.BoxID, "entry", p.EntryID, "error", err)
				settled = false
				continue
			}
			removed++
		}

		if settled {
			if err := s.journal.Clear(ctx, draft); err != nil {
				return removed, fmt.Errorf("failed to clear draft %s: %w", draft, err)
			}
		}
	}

	if len(drafts) > 0 {
		s.logger.Info(ctx, "sweep finished", "drafts", len(drafts), "removed", removed)
	}
	return removed, nil
}

func (s *Store) referencedParts(ctx context.Context, boxID string, cache map[string]map[string]bool) (map[string]bool, error) {
	if refs, ok := cache[boxID]; ok {
		return refs, nil
	}

	entries, err := s.listEntries(ctx, boxID)
	if err != nil {
		return nil, err
	}

	refs := make(map[string]bool)
	for i := range entries {
		if meta, ok := headMetadata(&entries[i]); ok {
			for _, id := range meta.Parts {
				refs[id] = true
			}
		}
	}
	cache[boxID] = refs
	return refs, nil
}

func (s *Store) stillPending(ctx context.Context, draft string) (bool, error) {
	pending, err := s.journal.Pending(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range pending {
		if p.DraftID == draft {
			return true, nil
		}
	}
	return false, nil
}
