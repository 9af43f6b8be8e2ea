package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// getOrderVersionsHandler lists an order's version snapshots
func (s *Server) getOrderVersionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	versions, err := s.versionService.GetVersions(ctx, orderID)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to fetch versions")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: versions})
}

// getOrderVersionHandler returns one snapshot by its version number
func (s *Server) getOrderVersionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	versionNumber, err := strconv.Atoi(vars["version"])

	if err != nil || versionNumber < 1 {
		s.respondWithError(w, http.StatusBadRequest, "Invalid version number")
		return
	}

	version, err := s.versionService.GetVersion(ctx, orderID, versionNumber)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to get version")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: version})
}

// compareOrderVersionsHandler diffs two snapshots of an order
func (s *Server) compareOrderVersionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	orderID := vars["id"]

	from, err := strconv.Atoi(r.URL.Query().Get("from"))

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Query parameter 'from' must be a version number")
		return
	}

	to, err := strconv.Atoi(r.URL.Query().Get("to"))

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Query parameter 'to' must be a version number")
		return
	}

	diff, err := s.versionService.CompareVersions(ctx, orderID, from, to)

	if err != nil {
		s.respondWithServiceError(w, err, "Failed to compare versions")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: diff})
}
