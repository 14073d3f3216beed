package handlers

import (
	"net/http"
	"strconv"

	"videogen/internal/domain"
)

const maxListLimit = 50

// Videos lists the most recent generations, newest first.
func (a *App) Videos(w http.ResponseWriter, r *http.Request) {
	limit := domain.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	items, err := a.Repo.ListRecent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list generations failed")
		a.error(w, http.StatusInternalServerError, "failed to load videos")
		return
	}
	if items == nil {
		items = []domain.GenerationRecord{}
	}
	a.json(w, http.StatusOK, items)
}
