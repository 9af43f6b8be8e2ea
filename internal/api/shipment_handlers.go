package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/retailworks/pos-backoffice/internal/service"
)

// createShipmentHandler records a shipment against an order
func (s *Server) createShipmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	var req service.CreateShipmentRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	shipment, err := s.fulfillmentService.CreateShipment(ctx, orderID, &req)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to create shipment")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: shipment})
}

// getShipmentsForOrderHandler lists an order's shipments with their lines
func (s *Server) getShipmentsForOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	shipments, err := s.fulfillmentService.GetShipments(ctx, orderID)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to retrieve shipments")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: shipments})
}

// backorderItemsHandler moves the requested units of the named lines into
// the backordered counter
func (s *Server) backorderItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	var req struct {
		Items   []service.BackorderItemInput `json:"items"`
		ActorID string                       `json:"actor_id"`
	}

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	summary, err := s.fulfillmentService.MarkBackordered(ctx, orderID, req.Items, req.ActorID)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to backorder items")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary})
}

// getFulfillmentSummaryHandler reports fulfillment progress for an order
func (s *Server) getFulfillmentSummaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	summary, err := s.fulfillmentService.GetSummary(ctx, orderID)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to get fulfillment summary")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary})
}
