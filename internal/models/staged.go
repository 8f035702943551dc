package models

import "time"

// StagedPart is a journal record of an entry written for a draft that has
// not been committed (or of a Part left behind by a delete).
type StagedPart struct {
	DraftID  string
	BoxID    string
	EntryID  string
	StagedAt time.Time
}
