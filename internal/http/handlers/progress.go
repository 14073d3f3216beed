package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *App) Progress(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		a.error(w, http.StatusBadRequest, "requestId required")
		return
	}
	state, ok := a.Tracker.Get(requestID)
	if !ok {
		a.error(w, http.StatusNotFound, "unknown request")
		return
	}
	a.json(w, http.StatusOK, state)
}
