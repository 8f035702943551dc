package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := h.store.ListContainers(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list containers", err)
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

func (h *Handler) CreateContainer(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.store.CreateContainer(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, "failed to create container", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetContainer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "containerID")

	c, err := h.store.GetContainer(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to get container", err)
		return
	}
	if c == nil {
		notFound(w, "container", id)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) RenameContainer(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.store.RenameContainer(r.Context(), chi.URLParam(r, "containerID"), req.Name)
	if err != nil {
		h.fail(w, r, "failed to rename container", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteContainer(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteContainer(r.Context(), chi.URLParam(r, "containerID")); err != nil {
		h.fail(w, r, "failed to delete container", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
