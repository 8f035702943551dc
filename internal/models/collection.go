package models

import "time"

// Collection is one stored file. Content is only populated by reads that
// fetch the payload; listings leave it nil.
type Collection struct {
	ID              string     `json:"id"`
	BoxID           string     `json:"boxId"`
	Name            string     `json:"name"`
	Content         []byte     `json:"-"`
	Size            int64      `json:"size"`
	IsPublic        bool       `json:"isPublic"`
	ContentType     string     `json:"contentType"`
	Chunks          int        `json:"chunks"`
	Timestamp       time.Time  `json:"timestamp"`
	EditedTimestamp *time.Time `json:"editedTimestamp,omitempty"`
	UpdatedAt       time.Time  `json:"lastUpdate"`
}

// CollectionUpdate is a partial update. Nil fields are left unchanged; a
// non-nil empty Content replaces the payload with zero bytes.
type CollectionUpdate struct {
	Name     *string
	Content  []byte
	IsPublic *bool
}

// Empty reports whether the update changes nothing.
func (u CollectionUpdate) Empty() bool {
	return u.Name == nil && u.Content == nil && u.IsPublic == nil
}
