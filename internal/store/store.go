package store

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/gateway"
	"github.com/dmitrijs2005/guildstore/internal/logging"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

// Gateway is the subset of *gateway.Gateway used by the store.
type Gateway interface {
	Execute(ctx context.Context, req gateway.Request) (*gateway.Response, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Journal records staged Part messages until their draft is committed.
// Stage records all parts or none of them.
type Journal interface {
	Stage(ctx context.Context, parts ...models.StagedPart) error
	Clear(ctx context.Context, draftID string) error
	Pending(ctx context.Context) ([]models.StagedPart, error)
}

// Mirror receives a copy of committed Collection content.
type Mirror interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

type Store struct {
	gw        Gateway
	journal   Journal
	mirror    Mirror
	groupID   string
	partLimit int
	now       func() time.Time
	logger    logging.Logger

	// drafts being written by this process, skipped by Sweep
	active sync.Map
}

type Option func(*Store)

func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithPartLimit overrides common.FileSizeLimit as the Part size.
func WithPartLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.partLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store backed by the given group (guild).
func New(gw Gateway, groupID string, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		gw:        gw,
		groupID:   groupID,
		partLimit: common.FileSizeLimit,
		now:       time.Now,
		logger:    logger.With("module", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
