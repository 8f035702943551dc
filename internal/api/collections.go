package api

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/guildstore/internal/codec"
	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

const (
	encodingText   = "text"
	encodingBase64 = "base64"
)

type collectionRequest struct {
	Name     *string `json:"name"`
	Content  *string `json:"content"`
	Encoding string  `json:"encoding"`
	IsPublic *bool   `json:"isPublic"`
}

// content decodes the request payload; nil means no content was sent.
func (req collectionRequest) content() ([]byte, error) {
	if req.Content == nil {
		return nil, nil
	}
	switch req.Encoding {
	case "", encodingText:
		return []byte(*req.Content), nil
	case encodingBase64:
		b, err := base64.StdEncoding.DecodeString(*req.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: content is not valid base64", common.ErrValidation)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", common.ErrValidation, req.Encoding)
	}
}

type collectionResponse struct {
	ID              string     `json:"id"`
	BoxID           string     `json:"boxId"`
	Name            string     `json:"name"`
	Size            int64      `json:"size"`
	IsPublic        bool       `json:"isPublic"`
	ContentType     string     `json:"contentType"`
	Chunks          int        `json:"chunks"`
	Timestamp       time.Time  `json:"timestamp"`
	EditedTimestamp *time.Time `json:"editedTimestamp,omitempty"`
	LastUpdate      time.Time  `json:"lastUpdate"`
	Content         *string    `json:"content,omitempty"`
	Encoding        string     `json:"encoding,omitempty"`
}

func toResponse(c *models.Collection) collectionResponse {
	resp := collectionResponse{
		ID:              c.ID,
		BoxID:           c.BoxID,
		Name:            c.Name,
		Size:            c.Size,
		IsPublic:        c.IsPublic,
		ContentType:     c.ContentType,
		Chunks:          c.Chunks,
		Timestamp:       c.Timestamp,
		EditedTimestamp: c.EditedTimestamp,
		LastUpdate:      c.UpdatedAt,
	}
	if c.Content == nil {
		return resp
	}

	var s string
	if codec.IsText(c.Name) {
		s, resp.Encoding = string(c.Content), encodingText
	} else {
		s, resp.Encoding = base64.StdEncoding.EncodeToString(c.Content), encodingBase64
	}
	resp.Content = &s
	return resp
}

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.store.ListCollections(r.Context(), chi.URLParam(r, "boxID"))
	if err != nil {
		h.fail(w, r, "failed to list collections", err)
		return
	}

	out := make([]collectionResponse, 0, len(cols))
	for _, c := range cols {
		out = append(out, toResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == nil {
		badRequest(w, "name is required", nil)
		return
	}
	content, err := req.content()
	if err != nil {
		badRequest(w, "invalid content", err)
		return
	}
	if content == nil {
		content = []byte{}
	}

	isPublic := req.IsPublic != nil && *req.IsPublic
	c, err := h.store.CreateCollection(r.Context(), chi.URLParam(r, "boxID"), *req.Name, content, isPublic)
	if err != nil {
		h.fail(w, r, "failed to create collection", err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(c))
}

// GetCollection returns the Collection as JSON, or its bytes as a download
// when the raw query parameter is true.
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")

	c, err := h.store.GetCollection(r.Context(), chi.URLParam(r, "boxID"), id)
	if err != nil {
		h.fail(w, r, "failed to get collection", err)
		return
	}
	if c == nil {
		notFound(w, "collection", id)
		return
	}

	if raw, _ := strconv.ParseBool(r.URL.Query().Get("raw")); raw {
		writeRaw(w, c)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(c))
}

func writeRaw(w http.ResponseWriter, c *models.Collection) {
	w.Header().Set("Content-Type", c.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(c.Content)))
	if d := mime.FormatMediaType("attachment", map[string]string{"filename": c.Name}); d != "" {
		w.Header().Set("Content-Disposition", d)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.Content)
}

func (h *Handler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	content, err := req.content()
	if err != nil {
		badRequest(w, "invalid content", err)
		return
	}

	upd := models.CollectionUpdate{Name: req.Name, Content: content, IsPublic: req.IsPublic}
	c, err := h.store.UpdateCollection(r.Context(), chi.URLParam(r, "boxID"), chi.URLParam(r, "collectionID"), upd)
	if err != nil {
		h.fail(w, r, "failed to update collection", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCollection(r.Context(), chi.URLParam(r, "boxID"), chi.URLParam(r, "collectionID")); err != nil {
		h.fail(w, r, "failed to delete collection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
