package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/guildstore/internal/codec"
	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/gateway"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

// longest id the platform hands out, used to size metadata before writing
const maxEntryIDLen = 20

func (s *Store) CreateCollection(ctx context.Context, boxID, name string, content []byte, isPublic bool) (*models.Collection, error) {
	if err := validateID("box", boxID); err != nil {
		return nil, err
	}
	if err := validateFileName(name); err != nil {
		return nil, err
	}

	parts, err := codec.Encode(name, content, s.partLimit)
	if err != nil {
		return nil, err
	}

	meta := codec.Metadata{
		Name:        name,
		Size:        int64(len(content)),
		IsPublic:    isPublic,
		LastUpdate:  s.now().UTC(),
		ContentType: codec.ContentType(name),
		Chunks:      len(parts),
		Ready:       ready(true),
	}
	if err := metadataFits(meta, len(parts)); err != nil {
		return nil, err
	}

	var head *entry
	if len(parts) == 1 {
		text, err := codec.EncodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		head, err = s.postEntry(ctx, boxID, text, []gateway.File{{Name: name, Data: content}})
		if err != nil {
			return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
		}
	} else {
		head, meta, err = s.commitDraft(ctx, boxID, meta, parts, func(text string) (*entry, error) {
			return s.postEntry(ctx, boxID, text, nil)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
		}
	}

	s.mirrorPut(ctx, boxID, head.ID, meta.ContentType, content)
	s.logger.Info(ctx, "collection created", "box", boxID, "id", head.ID, "name", name, "size", meta.Size, "parts", len(parts))

	c := toCollection(boxID, head, meta)
	c.Content = content
	return c, nil
}

// GetCollection fetches and reassembles a Collection. It returns (nil, nil)
// when the entry does not exist or is not a committed Collection head, and
// common.ErrDecodeCorrupt when any Part is missing.
func (s *Store) GetCollection(ctx context.Context, boxID, id string) (*models.Collection, error) {
	if err := validateID("box", boxID); err != nil {
		return nil, err
	}
	if err := validateID("collection", id); err != nil {
		return nil, err
	}

	e, err := s.getEntry(ctx, boxID, id)
	if err != nil || e == nil {
		return nil, err
	}
	meta, ok := headMetadata(e)
	if !ok {
		return nil, nil
	}

	content, err := s.readContent(ctx, boxID, e, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection[%s]: %w", id, err)
	}

	c := toCollection(boxID, e, meta)
	c.Content = content
	return c, nil
}

// ListCollections returns the committed Collections of a box without their
// content, oldest first.
func (s *Store) ListCollections(ctx context.Context, boxID string) ([]*models.Collection, error) {
	if err := validateID("box", boxID); err != nil {
		return nil, err
	}

	entries, err := s.listEntries(ctx, boxID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Collection, 0, len(entries))
	for i := range entries {
		if meta, ok := headMetadata(&entries[i]); ok {
			out = append(out, toCollection(boxID, &entries[i], meta))
		}
	}
	return out, nil
}

// UpdateCollection applies a partial update. A metadata-only change edits the
// head in place and returns the Collection without content. A content change
// writes the new Parts, commits the head, then removes the previous Parts.
func (s *Store) UpdateCollection(ctx context.Context, boxID, id string, upd models.CollectionUpdate) (*models.Collection, error) {
	if err := validateID("box", boxID); err != nil {
		return nil, err
	}
	if err := validateID("collection", id); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}
	if upd.Name != nil {
		if err := validateFileName(*upd.Name); err != nil {
			return nil, err
		}
	}

	e, err := s.getEntry(ctx, boxID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("collection[%s]: %w", id, common.ErrorNotFound)
	}
	meta, ok := headMetadata(e)
	if !ok {
		return nil, fmt.Errorf("collection[%s]: %w", id, common.ErrorNotFound)
	}

	previous := meta.Parts
	if upd.Name != nil {
		meta.Name = *upd.Name
		meta.ContentType = codec.ContentType(meta.Name)
	}
	if upd.IsPublic != nil {
		meta.IsPublic = *upd.IsPublic
	}
	meta.LastUpdate = s.now().UTC()
	meta.Ready = ready(true)

	if upd.Content == nil {
		text, err := codec.EncodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		head, err := s.editEntry(ctx, boxID, id, text, nil, false)
		if err != nil {
			return nil, fmt.Errorf("failed to update collection[%s]: %w", id, err)
		}
		s.logger.Info(ctx, "collection metadata updated", "box", boxID, "id", id)
		return toCollection(boxID, head, meta), nil
	}

	content := upd.Content
	parts, err := codec.Encode(meta.Name, content, s.partLimit)
	if err != nil {
		return nil, err
	}
	meta.Size = int64(len(content))
	meta.Chunks = len(parts)
	meta.Parts = nil
	meta.Draft = ""
	if err := metadataFits(meta, len(parts)); err != nil {
		return nil, err
	}

	var old *retirement
	if len(previous) > 0 {
		old = s.beginRetire(ctx, boxID, previous)
	}

	var head *entry
	if len(parts) == 1 {
		var text string
		text, err = codec.EncodeMetadata(meta)
		if err == nil {
			head, err = s.editEntry(ctx, boxID, id, text, []gateway.File{{Name: meta.Name, Data: content}}, true)
		}
	} else {
		head, meta, err = s.commitDraft(ctx, boxID, meta, parts, func(text string) (*entry, error) {
			return s.editEntry(ctx, boxID, id, text, nil, true)
		})
	}
	if err != nil {
		if old != nil {
			s.abortRetire(ctx, old, err)
		}
		return nil, fmt.Errorf("failed to update collection[%s]: %w", id, err)
	}

	if old != nil {
		s.finishRetire(ctx, old)
	}
	s.mirrorPut(ctx, boxID, id, meta.ContentType, content)
	s.logger.Info(ctx, "collection content replaced", "box", boxID, "id", id, "size", meta.Size, "parts", len(parts))

	c := toCollection(boxID, head, meta)
	c.Content = content
	return c, nil
}

// DeleteCollection removes the head first, so the Collection disappears in
// one step, then its Parts. Missing entries and entries that are not
// Collection heads are left alone.
func (s *Store) DeleteCollection(ctx context.Context, boxID, id string) error {
	if err := validateID("box", boxID); err != nil {
		return err
	}
	if err := validateID("collection", id); err != nil {
		return err
	}

	e, err := s.getEntry(ctx, boxID, id)
	if err != nil || e == nil {
		return err
	}
	meta, ok := headMetadata(e)
	if !ok {
		return nil
	}

	if err := s.deleteEntry(ctx, boxID, id); err != nil {
		return fmt.Errorf("failed to delete collection[%s]: %w", id, err)
	}
	if len(meta.Parts) > 0 {
		s.retire(ctx, boxID, meta.Parts)
	}
	s.mirrorDelete(ctx, boxID, id)

	s.logger.Info(ctx, "collection deleted", "box", boxID, "id", id)
	return nil
}

// commitDraft stages parts, then runs commit with the head text listing them.
// Staged Parts are removed when the write fails, except when the commit
// itself may have landed; those stay journalled for Sweep to settle.
func (s *Store) commitDraft(ctx context.Context, boxID string, meta codec.Metadata, parts []codec.Part,
	commit func(text string) (*entry, error)) (*entry, codec.Metadata, error) {

	draft := uuid.NewString()
	s.active.Store(draft, struct{}{})
	defer s.active.Delete(draft)

	ids, err := s.stage(ctx, boxID, draft, parts, meta.LastUpdate)
	if err != nil {
		s.abandon(ctx, boxID, draft, ids)
		return nil, meta, err
	}

	meta.Parts = ids
	meta.Draft = draft
	text, err := codec.EncodeMetadata(meta)
	if err != nil {
		s.abandon(ctx, boxID, draft, ids)
		return nil, meta, err
	}

	head, err := commit(text)
	if err != nil {
		if uncertain(err) {
			s.logger.Warn(ctx, "commit outcome unknown, leaving staged parts to sweep", "box", boxID, "draft", draft, "error", err)
		} else {
			s.abandon(ctx, boxID, draft, ids)
		}
		return nil, meta, fmt.Errorf("failed to commit draft %s: %w", draft, err)
	}

	s.clearDraft(ctx, draft)
	return head, meta, nil
}

func (s *Store) stage(ctx context.Context, boxID, draft string, parts []codec.Part, at time.Time) ([]string, error) {
	ids := make([]string, 0, len(parts))

	for _, p := range parts {
		text, err := codec.EncodeMetadata(codec.Metadata{
			Name:       p.Name,
			Size:       int64(len(p.Data)),
			LastUpdate: at,
			Chunks:     p.Total,
			Draft:      draft,
			Ready:      ready(false),
		})
		if err != nil {
			return ids, err
		}

		e, err := s.postEntry(ctx, boxID, text, []gateway.File{{Name: p.Name, Data: p.Data}})
		if err != nil {
			return ids, fmt.Errorf("failed to stage part %d/%d: %w", p.Index, p.Total, err)
		}
		ids = append(ids, e.ID)

		if s.journal != nil {
			rec := models.StagedPart{DraftID: draft, BoxID: boxID, EntryID: e.ID, StagedAt: s.now().UTC()}
			if err := s.journal.Stage(ctx, rec); err != nil {
				return ids, fmt.Errorf("failed to journal part %d/%d: %w", p.Index, p.Total, err)
			}
		}

		s.logger.Debug(ctx, "part staged", "box", boxID, "draft", draft, "part", p.Index, "of", p.Total, "entry", e.ID)
	}

	return ids, nil
}

// abandon removes the Parts staged for a draft that will never commit.
func (s *Store) abandon(ctx context.Context, boxID, draft string, ids []string) {
	ctx = context.WithoutCancel(ctx)
	if s.removeEntries(ctx, boxID, ids) {
		s.clearDraft(ctx, draft)
	}
}

// uncertain reports whether a failed commit may still have reached the
// platform. Rejections, throttling give-ups and validation failures did not.
func uncertain(err error) bool {
	var rejected *gateway.RemoteError
	return !errors.As(err, &rejected) &&
		!errors.Is(err, common.ErrValidation) &&
		!errors.Is(err, common.ErrRateLimitExceeded) &&
		!errors.Is(err, common.ErrorNotFound)
}

// retirement is a set of Parts a head change is about to orphan.
type retirement struct {
	boxID string
	draft string
	ids   []string
}

// beginRetire journals ids before the head stops listing them, so Sweep
// removes them if the outcome of the change is never learned.
func (s *Store) beginRetire(ctx context.Context, boxID string, ids []string) *retirement {
	ctx = context.WithoutCancel(ctx)

	r := &retirement{boxID: boxID, draft: "retire-" + uuid.NewString(), ids: ids}
	s.active.Store(r.draft, struct{}{})

	if s.journal != nil {
		recs := make([]models.StagedPart, 0, len(ids))
		for _, id := range ids {
			recs = append(recs, models.StagedPart{DraftID: r.draft, BoxID: boxID, EntryID: id, StagedAt: s.now().UTC()})
		}
		if err := s.journal.Stage(ctx, recs...); err != nil {
			s.logger.Warn(ctx, "failed to journal retired parts", "box", boxID, "draft", r.draft, "error", err)
		}
	}
	return r
}

// finishRetire deletes the Parts once no head lists them.
func (s *Store) finishRetire(ctx context.Context, r *retirement) {
	defer s.active.Delete(r.draft)
	ctx = context.WithoutCancel(ctx)

	if s.removeEntries(ctx, r.boxID, r.ids) {
		s.clearDraft(ctx, r.draft)
	}
}

// abortRetire keeps the Parts after a failed head change. When the change
// may still have landed the journal record is left for Sweep to decide.
func (s *Store) abortRetire(ctx context.Context, r *retirement, cause error) {
	defer s.active.Delete(r.draft)

	if uncertain(cause) {
		s.logger.Warn(ctx, "head change outcome unknown, leaving retired parts to sweep", "box", r.boxID, "draft", r.draft)
		return
	}
	s.clearDraft(context.WithoutCancel(ctx), r.draft)
}

// retire removes Parts no longer referenced by a head.
func (s *Store) retire(ctx context.Context, boxID string, ids []string) {
	s.finishRetire(ctx, s.beginRetire(ctx, boxID, ids))
}

func (s *Store) removeEntries(ctx context.Context, boxID string, ids []string) bool {
	ok := true
	for _, id := range ids {
		if err := s.deleteEntry(ctx, boxID, id); err != nil {
			s.logger.Warn(ctx, "failed to remove part", "box", boxID, "entry", id, "error", err)
			ok = false
		}
	}
	return ok
}

func (s *Store) clearDraft(ctx context.Context, draft string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Clear(ctx, draft); err != nil {
		s.logger.Warn(ctx, "failed to clear journal", "draft", draft, "error", err)
	}
}

func (s *Store) readContent(ctx context.Context, boxID string, head *entry, meta codec.Metadata) ([]byte, error) {
	atts := head.Attachments
	if len(meta.Parts) > 0 {
		atts = make([]attachment, 0, len(meta.Parts))
		for _, id := range meta.Parts {
			pe, err := s.getEntry(ctx, boxID, id)
			if err != nil {
				return nil, err
			}
			if pe == nil || len(pe.Attachments) == 0 {
				return nil, fmt.Errorf("%w: part entry[%s] is missing", common.ErrDecodeCorrupt, id)
			}
			atts = append(atts, pe.Attachments...)
		}
	}

	if len(atts) == 0 {
		if meta.Size == 0 {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("%w: no parts stored", common.ErrDecodeCorrupt)
	}

	legacy := meta.Ready == nil
	parts := make([]codec.Part, 0, len(atts))
	for _, a := range atts {
		data, err := s.gw.Download(ctx, a.URL)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: attachment %s is gone", common.ErrDecodeCorrupt, a.Filename)
		}
		if err != nil {
			return nil, err
		}
		if legacy {
			parts = append(parts, legacyPart(a.Filename, meta.Name, len(atts), data))
		} else {
			parts = append(parts, codec.PartFromAttachment(a.Filename, data))
		}
	}
	if len(parts) == 1 {
		parts[0].Index, parts[0].Total = 1, 1
	}

	content, err := codec.Decode(parts)
	if err != nil {
		return nil, err
	}
	if int64(len(content)) != meta.Size {
		return nil, fmt.Errorf("%w: reassembled %d bytes, expected %d", common.ErrDecodeCorrupt, len(content), meta.Size)
	}
	return content, nil
}

// headMetadata reports whether e is a committed Collection head. Entries
// without readable metadata but with attachments are legacy Collections.
func headMetadata(e *entry) (codec.Metadata, bool) {
	v := codec.DecodeMetadata(e.Content)
	if m, ok := v.Parsed(); ok {
		if !m.Committed() || m.Name == "" {
			return m, false
		}
		return m, true
	}

	if len(e.Attachments) == 0 {
		return codec.Metadata{}, false
	}

	first := legacyPart(e.Attachments[0].Filename, "", len(e.Attachments), nil)
	m := codec.Metadata{
		Name:        first.Name,
		LastUpdate:  e.Timestamp,
		ContentType: codec.ContentType(first.Name),
		Chunks:      len(e.Attachments),
	}
	for _, a := range e.Attachments {
		m.Size += a.Size
	}
	return m, true
}

// legacyPart rebuilds a Part of a head written without the ready marker.
// Those heads named chunks chunk_{index}_{name}, so a name is read as
// chunk_{index}_{total}_{name} only when total matches the attachment count
// and the name matches the recorded one.
func legacyPart(filename, name string, count int, data []byte) codec.Part {
	p := codec.PartFromAttachment(filename, data)
	if p.Total == 0 {
		return p
	}
	if p.Total == count && (name == "" || p.Name == name || p.Name == name+".json") {
		return p
	}
	if index, rest, ok := codec.ParseLegacyPartName(filename); ok {
		return codec.Part{Index: index, Name: rest, Data: data}
	}
	return p
}

func toCollection(boxID string, e *entry, m codec.Metadata) *models.Collection {
	c := &models.Collection{
		ID:              e.ID,
		BoxID:           boxID,
		Name:            m.Name,
		Size:            m.Size,
		IsPublic:        m.IsPublic,
		ContentType:     m.ContentType,
		Chunks:          m.Chunks,
		Timestamp:       e.Timestamp,
		EditedTimestamp: e.EditedTimestamp,
		UpdatedAt:       m.LastUpdate,
	}
	if c.ContentType == "" {
		c.ContentType = codec.ContentType(m.Name)
	}
	if c.Chunks == 0 {
		c.Chunks = max(len(m.Parts), len(e.Attachments), 1)
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = e.Timestamp
	}
	return c
}

func metadataFits(meta codec.Metadata, parts int) error {
	if parts > 1 {
		meta.Parts = make([]string, parts)
		for i := range meta.Parts {
			meta.Parts[i] = strings.Repeat("0", maxEntryIDLen)
		}
		meta.Draft = uuid.Nil.String()
	}
	_, err := codec.EncodeMetadata(meta)
	return err
}

func ready(v bool) *bool {
	return &v
}
