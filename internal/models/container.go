// Package models holds the entities exposed by the store and the records
// kept in the local journal.
package models

// Container is a top-level grouping of Boxes.
type Container struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	BoxIDs []string `json:"boxIds"`
}

// Box is a grouping of Collections nested under one Container.
type Box struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ContainerID   string   `json:"containerId"`
	CollectionIDs []string `json:"collectionIds"`
}
