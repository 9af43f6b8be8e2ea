package api

import (
	"net/http"
)

// getTaxClientStatusHandler returns the tax service circuit breaker metrics
func (s *Server) getTaxClientStatusHandler(w http.ResponseWriter, r *http.Request) {
	metrics := s.taxClient.GetBreakerMetrics()

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: metrics})
}

// resetTaxClientBreakerHandler forces the tax service circuit breaker closed
func (s *Server) resetTaxClientBreakerHandler(w http.ResponseWriter, r *http.Request) {
	s.taxClient.ResetBreaker()

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]string{
			"message": "Tax service circuit breaker reset",
		},
	})
}
