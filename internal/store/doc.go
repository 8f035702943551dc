// Package store maps Container, Box and Collection CRUD onto the remote
// platform: Containers are category channels, Boxes are text channels and
// Collections are messages whose text holds JSON metadata and whose
// attachments hold the payload.
//
// Small Collections are a single message. Larger ones are written in two
// phases: each Part is posted as its own staged message (metadata
// ready=false, journalled locally), then the head message listing the Part
// ids is posted or edited last. Readers only discover Collections through
// committed heads, so a half-written Collection is never visible. Staged
// messages left behind by failed or interrupted writes are removed by Sweep.
package store
