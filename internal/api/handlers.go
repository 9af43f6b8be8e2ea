package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/retailworks/pos-backoffice/internal/repository"
	"github.com/retailworks/pos-backoffice/internal/service"
	apperrors "github.com/retailworks/pos-backoffice/pkg/errors"
)

type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PaginationResponse wraps a paged list result
type PaginationResponse struct {
	Items      interface{} `json:"items"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}

// Health represents the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:    "ok",
		Version:   "0.1.0",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    health,
	})
}

// getOrdersHandler returns a paginated list of orders
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := strconv.Atoi(r.URL.Query().Get("page"))

	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))

	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	orders, err := s.orderService.GetAllOrders(ctx, pageSize, offset)

	if err != nil {
		s.logger.Error("Failed to fetch orders", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	total, err := s.orderService.CountOrders(ctx)

	if err != nil {
		s.logger.Error("Failed to count orders", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	response := PaginationResponse{
		Items:      orders,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response})
}

// createOrderHandler registers a confirmed order
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateOrderRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	order, err := s.orderService.CreateOrder(ctx, &req)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to create order")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: order})
}

// getOrderByIDHandler returns an order with its items and price lock state
func (s *Server) getOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	detail, err := s.orderService.GetOrderDetail(ctx, id)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to get order")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail})
}

// setPriceLockHandler toggles quote price protection on an order
func (s *Server) setPriceLockHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	var req struct {
		Locked  bool       `json:"locked"`
		Until   *time.Time `json:"until,omitempty"`
		QuoteID *string    `json:"quote_id,omitempty"`
		ActorID string     `json:"actor_id"`
	}

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	order, err := s.orderService.SetPriceLock(ctx, orderID, req.Locked, req.Until, req.QuoteID, req.ActorID)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to update price lock")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order})
}

// respondWithServiceError maps service and repository errors onto HTTP codes
func (s *Server) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var appErr *apperrors.AppError

	if errors.As(err, &appErr) {
		s.respondWithError(w, appErr.StatusCode, appErr.Error())
		return
	}

	if errors.Is(err, repository.ErrNotFound) {
		s.respondWithError(w, http.StatusNotFound, "Resource not found")
		return
	}

	s.logger.Error(fallback, "error", err)
	s.respondWithError(w, http.StatusInternalServerError, fallback)
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
