package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/retailworks/pos-backoffice/internal/service"
)

// createAmendmentHandler proposes a change set against an order
func (s *Server) createAmendmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	var req service.CreateAmendmentRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	amendment, err := s.amendmentService.Create(ctx, orderID, &req)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to create amendment")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: amendment})
}

// getOrderAmendmentsHandler lists an order's amendments
func (s *Server) getOrderAmendmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	amendments, err := s.amendmentService.GetOrderAmendments(ctx, orderID)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to fetch amendments")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: amendments})
}

// getAmendmentHandler returns an amendment with its item changes
func (s *Server) getAmendmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	detail, err := s.amendmentService.GetAmendment(ctx, id)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to get amendment")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail})
}

// getPendingAmendmentsHandler lists amendments waiting for a decision
func (s *Server) getPendingAmendmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))

	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}

	amendments, err := s.amendmentService.GetPendingAmendments(ctx, limit)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to fetch pending amendments")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: amendments})
}

// approveAmendmentHandler approves a pending amendment
func (s *Server) approveAmendmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	var req struct {
		ApproverID string `json:"approver_id"`
		Notes      string `json:"notes,omitempty"`
	}

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	amendment, err := s.amendmentService.Approve(ctx, id, req.ApproverID, req.Notes)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to approve amendment")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: amendment})
}

// rejectAmendmentHandler rejects a pending amendment
func (s *Server) rejectAmendmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	var req struct {
		ApproverID string `json:"approver_id"`
		Reason     string `json:"reason"`
	}

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	amendment, err := s.amendmentService.Reject(ctx, id, req.ApproverID, req.Reason)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to reject amendment")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: amendment})
}

// applyAmendmentHandler applies an approved amendment to the live order
func (s *Server) applyAmendmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	var req struct {
		ActorID string `json:"actor_id"`
	}

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	amendment, err := s.amendmentService.Apply(ctx, id, req.ActorID)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to apply amendment")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: amendment})
}
