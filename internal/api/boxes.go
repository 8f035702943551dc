package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListBoxes(w http.ResponseWriter, r *http.Request) {
	boxes, err := h.store.ListBoxes(r.Context(), chi.URLParam(r, "containerID"))
	if err != nil {
		h.fail(w, r, "failed to list boxes", err)
		return
	}
	writeJSON(w, http.StatusOK, boxes)
}

func (h *Handler) CreateBox(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.store.CreateBox(r.Context(), chi.URLParam(r, "containerID"), req.Name)
	if err != nil {
		h.fail(w, r, "failed to create box", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBox(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "boxID")

	b, err := h.store.GetBox(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to get box", err)
		return
	}
	if b == nil {
		notFound(w, "box", id)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) RenameBox(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.store.RenameBox(r.Context(), chi.URLParam(r, "boxID"), req.Name)
	if err != nil {
		h.fail(w, r, "failed to rename box", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) DeleteBox(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBox(r.Context(), chi.URLParam(r, "boxID")); err != nil {
		h.fail(w, r, "failed to delete box", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
