package store

import "context"

// MirrorKey is the object key of a Collection's mirrored content.
func MirrorKey(boxID, collectionID string) string {
	return "collections/" + boxID + "/" + collectionID
}

func (s *Store) mirrorPut(ctx context.Context, boxID, id, contentType string, content []byte) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Put(ctx, MirrorKey(boxID, id), content, contentType); err != nil {
		s.logger.Warn(ctx, "failed to mirror collection", "box", boxID, "id", id, "error", err)
	}
}

func (s *Store) mirrorDelete(ctx context.Context, boxID, id string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Delete(ctx, MirrorKey(boxID, id)); err != nil {
		s.logger.Warn(ctx, "failed to remove mirrored collection", "box", boxID, "id", id, "error", err)
	}
}
