package handlers

import (
	"net/http"
	"strconv"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/jobs"
)

// EnqueueAnalysis handles POST /api/users/{userID}/analyze.
func (h *Handler) EnqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	job := &jobs.AnalyzeUserJob{UserID: userID}

	if err := h.publisher.PublishAnalyzeUser(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusServiceUnavailable, MsgUnavailable)
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", userID).Msg("Analysis job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"user_id": userID,
		"status":  string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{jobID}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), r.PathValue("jobID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	list, err := h.jobs.ListJobs(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse("jobs", list))
}
