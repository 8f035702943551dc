package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

func (s *Store) CreateContainer(ctx context.Context, name string) (*models.Container, error) {
	slug, err := Slugify(name)
	if err != nil {
		return nil, err
	}

	n, err := s.createNode(ctx, map[string]any{"name": slug, "type": nodeTypeContainer})
	if err != nil {
		return nil, fmt.Errorf("failed to create container %q: %w", slug, err)
	}

	s.logger.Info(ctx, "container created", "id", n.ID, "name", n.Name)
	return &models.Container{ID: n.ID, Name: n.Name, BoxIDs: []string{}}, nil
}

// GetContainer returns (nil, nil) when no node with this id exists.
func (s *Store) GetContainer(ctx context.Context, id string) (*models.Container, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}

	n, err := s.getNode(ctx, id)
	if err != nil || n == nil {
		return nil, err
	}
	if n.Type != nodeTypeContainer {
		return nil, fmt.Errorf("%w: node[%s] is not a container", common.ErrValidation, id)
	}

	nodes, err := s.listNodes(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Container{ID: n.ID, Name: n.Name, BoxIDs: childIDs(nodes, n.ID)}, nil
}

func (s *Store) ListContainers(ctx context.Context) ([]*models.Container, error) {
	nodes, err := s.listNodes(ctx)
	if err != nil {
		return nil, err
	}

	containers := make([]*models.Container, 0)
	for _, n := range nodes {
		if n.Type == nodeTypeContainer {
			containers = append(containers, &models.Container{ID: n.ID, Name: n.Name, BoxIDs: childIDs(nodes, n.ID)})
		}
	}
	return containers, nil
}

func (s *Store) RenameContainer(ctx context.Context, id, name string) (*models.Container, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}
	slug, err := Slugify(name)
	if err != nil {
		return nil, err
	}

	n, err := s.renameNode(ctx, id, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to rename container[%s]: %w", id, err)
	}

	nodes, err := s.listNodes(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Container{ID: n.ID, Name: n.Name, BoxIDs: childIDs(nodes, n.ID)}, nil
}

// DeleteContainer removes the container; its Boxes and Collections go with
// it through the platform's own cascade. Deleting a missing container is not
// an error.
func (s *Store) DeleteContainer(ctx context.Context, id string) error {
	if err := validateID("container", id); err != nil {
		return err
	}

	if err := s.deleteNode(ctx, id); err != nil {
		return fmt.Errorf("failed to delete container[%s]: %w", id, err)
	}

	s.logger.Info(ctx, "container deleted", "id", id)
	return nil
}

func childIDs(nodes []node, parentID string) []string {
	ids := make([]string, 0)
	for _, n := range nodes {
		if n.Type == nodeTypeBox && n.ParentID == parentID {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
