package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/internal/repository"
)

// getDeadLettersHandler returns pending dead letter messages
func (s *Server) getDeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := strconv.Atoi(r.URL.Query().Get("page"))

	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))

	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	messages, err := s.dlqRepo.GetPendingMessages(ctx, pageSize)

	if err != nil {
		s.logger.Error("Failed to fetch dead letter messages", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch dead letter messages")
		return
	}

	response := PaginationResponse{
		Items:      messages,
		TotalCount: len(messages),
		Page:       page,
		PageSize:   pageSize,
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response})
}

// retryDeadLetterHandler queues a dead letter message for replay
func (s *Server) retryDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	idStr := vars["id"]

	id, err := strconv.ParseInt(idStr, 10, 64)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	message, err := s.dlqRepo.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Dead letter message not found")
			return
		}
		s.logger.Error("Failed to fetch dead letter message", "error", err, "messageID", id)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch dead letter message")
		return
	}

	if message.Status != string(models.DeadLetterStatusPending) {
		s.respondWithError(w, http.StatusBadRequest, "Only pending messages can be retried")
		return
	}

	if err := s.dlqRepo.MarkAsRetrying(ctx, id); err != nil {
		s.logger.Error("Failed to mark message as retrying", "error", err, "messageID", id)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to mark message for retry")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]string{
			"message": "Dead letter message marked for retry",
			"id":      idStr,
		},
	})
}

// discardDeadLetterHandler discards a dead letter message
func (s *Server) discardDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	idStr := vars["id"]

	id, err := strconv.ParseInt(idStr, 10, 64)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	if err := s.dlqRepo.MarkAsDiscarded(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Dead letter message not found")
			return
		}
		s.logger.Error("Failed to discard message", "error", err, "messageID", id)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to discard message")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]string{
			"message": "Dead letter message discarded",
			"id":      idStr,
		},
	})
}
