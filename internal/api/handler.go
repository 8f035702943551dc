package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/guildstore/internal/logging"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

const defaultMaxBody = 256 << 20

// Store is the set of store operations served over HTTP.
type Store interface {
	CreateContainer(ctx context.Context, name string) (*models.Container, error)
	GetContainer(ctx context.Context, id string) (*models.Container, error)
	ListContainers(ctx context.Context) ([]*models.Container, error)
	RenameContainer(ctx context.Context, id, name string) (*models.Container, error)
	DeleteContainer(ctx context.Context, id string) error

	CreateBox(ctx context.Context, containerID, name string) (*models.Box, error)
	GetBox(ctx context.Context, id string) (*models.Box, error)
	ListBoxes(ctx context.Context, containerID string) ([]*models.Box, error)
	RenameBox(ctx context.Context, id, name string) (*models.Box, error)
	DeleteBox(ctx context.Context, id string) error

	CreateCollection(ctx context.Context, boxID, name string, content []byte, isPublic bool) (*models.Collection, error)
	GetCollection(ctx context.Context, boxID, id string) (*models.Collection, error)
	ListCollections(ctx context.Context, boxID string) ([]*models.Collection, error)
	UpdateCollection(ctx context.Context, boxID, id string, upd models.CollectionUpdate) (*models.Collection, error)
	DeleteCollection(ctx context.Context, boxID, id string) error
}

type Handler struct {
	store   Store
	logger  logging.Logger
	maxBody int64
}

type Option func(*Handler)

// WithMaxBody caps request bodies at n bytes.
func WithMaxBody(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

func NewHandler(store Store, logger logging.Logger, opts ...Option) *Handler {
	h := &Handler{store: store, logger: logger.With("module", "api"), maxBody: defaultMaxBody}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes builds the chi router for the whole surface.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/containers", func(r chi.Router) {
			r.Get("/", h.ListContainers)
			r.Post("/", h.CreateContainer)
			r.Route("/{containerID}", func(r chi.Router) {
				r.Get("/", h.GetContainer)
				r.Patch("/", h.RenameContainer)
				r.Delete("/", h.DeleteContainer)
				r.Get("/boxes", h.ListBoxes)
				r.Post("/boxes", h.CreateBox)
			})
		})

		r.Route("/boxes/{boxID}", func(r chi.Router) {
			r.Get("/", h.GetBox)
			r.Patch("/", h.RenameBox)
			r.Delete("/", h.DeleteBox)
			r.Get("/collections", h.ListCollections)
			r.Post("/collections", h.CreateCollection)
			r.Get("/collections/{collectionID}", h.GetCollection)
			r.Patch("/collections/{collectionID}", h.UpdateCollection)
			r.Delete("/collections/{collectionID}", h.DeleteCollection)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
