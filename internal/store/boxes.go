package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

func (s *Store) CreateBox(ctx context.Context, containerID, name string) (*models.Box, error) {
	if err := validateID("container", containerID); err != nil {
		return nil, err
	}
	slug, err := Slugify(name)
	if err != nil {
		return nil, err
	}

	n, err := s.createNode(ctx, map[string]any{"name": slug, "type": nodeTypeBox, "parent_id": containerID})
	if err != nil {
		return nil, fmt.Errorf("failed to create box %q: %w", slug, err)
	}

	s.logger.Info(ctx, "box created", "id", n.ID, "name", n.Name, "container", containerID)
	return &models.Box{ID: n.ID, Name: n.Name, ContainerID: n.ParentID, CollectionIDs: []string{}}, nil
}

// GetBox returns (nil, nil) when no node with this id exists.
func (s *Store) GetBox(ctx context.Context, id string) (*models.Box, error) {
	if err := validateID("box", id); err != nil {
		return nil, err
	}

	n, err := s.getNode(ctx, id)
	if err != nil || n == nil {
		return nil, err
	}
	if n.Type != nodeTypeBox {
		return nil, fmt.Errorf("%w: node[%s] is not a box", common.ErrValidation, id)
	}

	entries, err := s.listEntries(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := headMetadata(&e); ok {
			ids = append(ids, e.ID)
		}
	}
	return &models.Box{ID: n.ID, Name: n.Name, ContainerID: n.ParentID, CollectionIDs: ids}, nil
}

// ListBoxes returns the boxes of a container. CollectionIDs are not filled,
// that would cost one listing per box; use GetBox for them.
func (s *Store) ListBoxes(ctx context.Context, containerID string) ([]*models.Box, error) {
	if err := validateID("container", containerID); err != nil {
		return nil, err
	}

	nodes, err := s.listNodes(ctx)
	if err != nil {
		return nil, err
	}

	boxes := make([]*models.Box, 0)
	for _, n := range nodes {
		if n.Type == nodeTypeBox && n.ParentID == containerID {
			boxes = append(boxes, &models.Box{ID: n.ID, Name: n.Name, ContainerID: n.ParentID})
		}
	}
	return boxes, nil
}

func (s *Store) RenameBox(ctx context.Context, id, name string) (*models.Box, error) {
	if err := validateID("box", id); err != nil {
		return nil, err
	}
	slug, err := Slugify(name)
	if err != nil {
		return nil, err
	}

	n, err := s.renameNode(ctx, id, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to rename box[%s]: %w", id, err)
	}
	return &models.Box{ID: n.ID, Name: n.Name, ContainerID: n.ParentID}, nil
}

// DeleteBox removes the box and, through the platform, every entry in it.
func (s *Store) DeleteBox(ctx context.Context, id string) error {
	if err := validateID("box", id); err != nil {
		return err
	}

	if err := s.deleteNode(ctx, id); err != nil {
		return fmt.Errorf("failed to delete box[%s]: %w", id, err)
	}

	s.logger.Info(ctx, "box deleted", "id", id)
	return nil
}
