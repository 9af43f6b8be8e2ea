package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/retailworks/pos-backoffice/internal/models"
)

// upsertProductHandler creates or updates a catalog product
func (s *Server) upsertProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		SKU        string `json:"sku"`
		PriceCents int64  `json:"price_cents"`
		Active     *bool  `json:"active,omitempty"`
	}

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.ID == "" || req.Name == "" {
		s.respondWithError(w, http.StatusBadRequest, "id and name are required")
		return
	}

	if req.PriceCents < 0 {
		s.respondWithError(w, http.StatusBadRequest, "price_cents cannot be negative")
		return
	}

	active := true

	if req.Active != nil {
		active = *req.Active
	}

	now := models.GetCurrentTime()
	product := &models.Product{
		ID:         req.ID,
		Name:       req.Name,
		SKU:        req.SKU,
		PriceCents: req.PriceCents,
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.catalogRepo.Upsert(ctx, product); err != nil {
		s.logger.Error("Failed to upsert product", "error", err, "productID", req.ID)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to save product")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product})
}

// getProductHandler returns one catalog product
func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	product, err := s.catalogRepo.GetByID(ctx, id)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to get product")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product})
}
