package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"vagahunter-engine/internal/scrape"
	"vagahunter-engine/internal/store"
)

type JobsHandler struct {
	Search Searcher
	Jobs   JobLister
}

// SearchJobs runs one search for ?query= and returns the jobs found.
func (h JobsHandler) SearchJobs(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		WriteError(w, r, http.StatusBadRequest, "empty_query", "query must not be empty")
		return
	}

	jobs, err := h.Search.Search(r.Context(), query)
	if errors.Is(err, scrape.ErrEmptyQuery) {
		WriteError(w, r, http.StatusBadRequest, "empty_query", "query must not be empty")
		return
	}
	if err != nil {
		zap.L().Error("search failed", zap.String("query", query), zap.Error(err))
		WriteError(w, r, http.StatusInternalServerError, "search_failed", "search failed")
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	intParam := func(name string) (int, bool) {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return 0, true
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_params", name+" must be an integer")
			return 0, false
		}
		return n, true
	}

	skip, ok := intParam("skip")
	if !ok {
		return
	}
	limit, ok := intParam("limit")
	if !ok {
		return
	}
	if q.Has("limit") && limit == 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_params", "limit must be 1..500")
		return
	}

	jobs, err := h.Jobs.List(r.Context(), store.ListOpts{Skip: skip, Limit: limit, Sort: q.Get("sort")})
	if errors.Is(err, store.ErrInvalidListOpts) {
		WriteError(w, r, http.StatusBadRequest, "invalid_params", err.Error())
		return
	}
	if err != nil {
		zap.L().Error("list jobs failed", zap.Error(err))
		WriteError(w, r, http.StatusInternalServerError, "list_failed", "could not list jobs")
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}
