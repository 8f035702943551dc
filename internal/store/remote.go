package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/gateway"
)

const (
	nodeTypeBox       = 0
	nodeTypeContainer = 4

	pageSize = 100
)

type node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	ParentID string `json:"parent_id"`
	Position int    `json:"position"`
}

type attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

type entry struct {
	ID              string       `json:"id"`
	ChannelID       string       `json:"channel_id"`
	Content         string       `json:"content"`
	Timestamp       time.Time    `json:"timestamp"`
	EditedTimestamp *time.Time   `json:"edited_timestamp"`
	Attachments     []attachment `json:"attachments"`
}

type attachmentRef struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

// entryBody is a message create/edit payload. A nil Attachments keeps the
// existing files on edit; a non-nil one replaces them.
type entryBody struct {
	Content     string           `json:"content"`
	Attachments *[]attachmentRef `json:"attachments,omitempty"`
}

func nodesRoute(groupID string) string { return "/guilds/" + url.PathEscape(groupID) + "/channels" }

func nodeRoute(id string) string { return "/channels/" + url.PathEscape(id) }

func entriesRoute(nodeID string) string { return nodeRoute(nodeID) + "/messages" }

func entryRoute(nodeID, entryID string) string {
	return entriesRoute(nodeID) + "/" + url.PathEscape(entryID)
}

func (s *Store) listNodes(ctx context.Context) ([]node, error) {
	resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodGet, Route: nodesRoute(s.groupID)})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("group[%s]: %w", s.groupID, common.ErrorNotFound)
	}

	var nodes []node
	if err := resp.Decode(&nodes); err != nil {
		return nil, err
	}
	slices.SortStableFunc(nodes, func(a, b node) int { return a.Position - b.Position })
	return nodes, nil
}

func (s *Store) getNode(ctx context.Context, id string) (*node, error) {
	resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodGet, Route: nodeRoute(id)})
	if err != nil {
		return nil, fmt.Errorf("failed to get node[%s]: %w", id, err)
	}
	if resp == nil {
		return nil, nil
	}

	var n node
	if err := resp.Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) createNode(ctx context.Context, body map[string]any) (*node, error) {
	resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodPost, Route: nodesRoute(s.groupID), Body: body})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("group[%s]: %w", s.groupID, common.ErrorNotFound)
	}

	var n node
	if err := resp.Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) renameNode(ctx context.Context, id, name string) (*node, error) {
	resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodPatch, Route: nodeRoute(id), Body: map[string]any{"name": name}})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("node[%s]: %w", id, common.ErrorNotFound)
	}

	var n node
	if err := resp.Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// deleteNode treats an already missing node as deleted.
func (s *Store) deleteNode(ctx context.Context, id string) error {
	_, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodDelete, Route: nodeRoute(id)})
	return err
}

func (s *Store) getEntry(ctx context.Context, nodeID, id string) (*entry, error) {
	resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodGet, Route: entryRoute(nodeID, id)})
	if err != nil {
		return nil, fmt.Errorf("failed to get entry[%s]: %w", id, err)
	}
	if resp == nil {
		return nil, nil
	}

	var e entry
	if err := resp.Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// listEntries returns every entry of a node, oldest first.
func (s *Store) listEntries(ctx context.Context, nodeID string) ([]entry, error) {
	var all []entry
	before := ""

	for {
		q := url.Values{}
		q.Set("limit", fmt.Sprint(pageSize))
		if before != "" {
			q.Set("before", before)
		}

		resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodGet, Route: entriesRoute(nodeID) + "?" + q.Encode()})
		if err != nil {
			return nil, fmt.Errorf("failed to list entries of node[%s]: %w", nodeID, err)
		}
		if resp == nil {
			return nil, fmt.Errorf("node[%s]: %w", nodeID, common.ErrorNotFound)
		}

		var page []entry
		if err := resp.Decode(&page); err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < pageSize {
			break
		}
		before = page[len(page)-1].ID
	}

	slices.Reverse(all)
	return all, nil
}

func (s *Store) postEntry(ctx context.Context, nodeID, content string, files []gateway.File) (*entry, error) {
	body := entryBody{Content: content}
	if len(files) > 0 {
		refs := attachmentRefs(files)
		body.Attachments = &refs
	}

	resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodPost, Route: entriesRoute(nodeID), Body: body, Files: files})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("node[%s]: %w", nodeID, common.ErrorNotFound)
	}

	var e entry
	if err := resp.Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// editEntry replaces the text of an entry. With replaceFiles set, its
// attachments are replaced by files (an empty files removes them all).
func (s *Store) editEntry(ctx context.Context, nodeID, id, content string, files []gateway.File, replaceFiles bool) (*entry, error) {
	body := entryBody{Content: content}
	if replaceFiles {
		refs := attachmentRefs(files)
		body.Attachments = &refs
	}

	resp, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodPatch, Route: entryRoute(nodeID, id), Body: body, Files: files})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("entry[%s]: %w", id, common.ErrorNotFound)
	}

	var e entry
	if err := resp.Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) deleteEntry(ctx context.Context, nodeID, id string) error {
	_, err := s.gw.Execute(ctx, gateway.Request{Method: http.MethodDelete, Route: entryRoute(nodeID, id)})
	return err
}

func attachmentRefs(files []gateway.File) []attachmentRef {
	refs := make([]attachmentRef, 0, len(files))
	for i, f := range files {
		refs = append(refs, attachmentRef{ID: i, Filename: f.Name})
	}
	return refs
}
