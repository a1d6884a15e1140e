package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"resona-backend/internal/models"
)

type JobHandler struct {
	audio AudioClient
	cache Cache
}

func NewJobHandler(audio AudioClient, cache Cache) *JobHandler {
	return &JobHandler{audio: audio, cache: cache}
}

// GetAnalysis handles GET /api/job/{id}/analysis: serve the cached result,
// or fetch it from the audio service and cache it on the way through.
func (h *JobHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	if analysis, err := h.cache.Get(r.Context(), jobID); err == nil {
		writeJSON(w, http.StatusOK, analysis)
		return
	}
	Metrics.CacheMisses.Inc()

	analysis, err := h.audio.FetchAnalysis(r.Context(), jobID)
	if err != nil {
		log.Printf("job: analysis fetch for %s failed: %v", jobID, err)
		writeError(w, http.StatusNotFound, models.ErrVideoNotFound, "analysis not found")
		return
	}

	if err := h.cache.Set(r.Context(), jobID, analysis); err != nil {
		log.Printf("job: caching analysis for %s failed: %v", jobID, err)
	}
	writeJSON(w, http.StatusOK, analysis)
}

// DeleteJob handles DELETE /api/job/{id}: purge the cached result and
// forward the delete. Always succeeds from the caller's point of view; this
// is fire-and-forget cleanup before a retry.
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	if err := h.cache.Delete(r.Context(), jobID); err != nil {
		log.Printf("job: cache purge for %s failed: %v", jobID, err)
	}
	if err := h.audio.DeleteJob(r.Context(), jobID); err != nil {
		log.Printf("job: upstream delete for %s failed: %v", jobID, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
