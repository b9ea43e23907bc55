package http

import (
	"context"
	"net/http"
	"time"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// handleReady reports ready once the database answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.DB.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

type metricsResponse struct {
	Requests          int64 `json:"requests"`
	AvgResponseMicros int64 `json:"avgResponseMicros"`
	RateLimitHits     int64 `json:"rateLimitHits"`
	RateLimitClients  int64 `json:"rateLimitClients"`
	SuspiciousBlocked int64 `json:"suspiciousBlocked"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	lm := s.limiter.GetMetrics()
	NewResponse().JSON(metricsResponse{
		Requests:          tm.TotalRequests,
		AvgResponseMicros: tm.AverageResponseTime,
		RateLimitHits:     lm.TotalHits,
		RateLimitClients:  lm.ClientCount,
		SuspiciousBlocked: s.detector.SuspiciousCount(),
	}).Write(w)
}
