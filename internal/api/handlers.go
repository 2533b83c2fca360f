package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pattern-hero/internal/marketdata"
	"pattern-hero/internal/patterns"
	"pattern-hero/internal/service"
)

func (s *Server) handleRoot(c *gin.Context) {
	successResponse(c, gin.H{
		"service": "pattern-hero",
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleListPairs returns the tracked trading pairs. Sources are tried in
// order: database, upstream markets listing, static list.
func (s *Server) handleListPairs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	if s.repo != nil {
		pairs, err := s.repo.ListTradingPairs(c.Request.Context(), limit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("database pair listing failed")
		} else if len(pairs) > 0 {
			successResponse(c, pairs)
			return
		}
	}

	if s.market != nil {
		markets, err := s.market.FetchMarkets(c.Request.Context(), limit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("upstream markets listing failed")
		} else if len(markets) > 0 {
			successResponse(c, markets)
			return
		}
	}

	successResponse(c, marketdata.StaticPairs())
}

// analysisRequest parses the shared query parameters of the pattern routes
func (s *Server) analysisRequest(c *gin.Context) service.Request {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "90"))
	req := service.Request{
		CoinID:        c.Param("coin_id"),
		Timeframe:     c.DefaultQuery("timeframe", "1d"),
		Days:          days,
		IncludeSeries: c.Query("include_series") == "true",
		Persist:       c.Query("persist") == "true",
	}
	if v := c.Query("start"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			req.Start = t
		}
	}
	if v := c.Query("end"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			req.End = t
		}
	}
	return req
}

// handleAnalyze runs the full detection suite over a coin
func (s *Server) handleAnalyze(c *gin.Context) {
	req := s.analysisRequest(c)

	analysis, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Str("coin_id", req.CoinID).Msg("analysis failed")
		errorResponse(c, http.StatusBadGateway, "Analysis failed: "+err.Error())
		return
	}

	s.hub.BroadcastAnalysis(analysis)
	successResponse(c, analysis)
}

// handleAnalyzeFiltered runs the suite and filters the results by category,
// direction, and minimum confidence
func (s *Server) handleAnalyzeFiltered(c *gin.Context) {
	req := s.analysisRequest(c)

	analysis, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Str("coin_id", req.CoinID).Msg("analysis failed")
		errorResponse(c, http.StatusBadGateway, "Analysis failed: "+err.Error())
		return
	}

	categories := splitFilter(c.Query("categories"))
	directions := splitFilter(c.Query("directions"))
	minConfidence, _ := strconv.Atoi(c.DefaultQuery("min_confidence", "0"))

	filtered := make([]patterns.Record, 0, len(analysis.Patterns))
	for _, rec := range analysis.Patterns {
		if minConfidence > 0 && rec.Confidence < minConfidence {
			continue
		}
		if len(categories) > 0 && !contains(categories, strings.ToLower(string(rec.Category))) {
			continue
		}
		if len(directions) > 0 && !contains(directions, strings.ToLower(string(rec.Direction))) {
			continue
		}
		filtered = append(filtered, rec)
	}
	analysis.Patterns = filtered
	analysis.Stats = recomputeStats(filtered)

	successResponse(c, analysis)
}

// handleServicesStatus reports the health of the backing services
func (s *Server) handleServicesStatus(c *gin.Context) {
	status := gin.H{
		"api":    "healthy",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	}

	if s.repo == nil {
		status["database"] = "disabled"
	} else if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
		status["database"] = "unhealthy"
	} else {
		status["database"] = "healthy"
	}

	switch {
	case s.redis == nil:
		status["redis"] = "disabled"
	case s.redis.IsHealthy():
		status["redis"] = "healthy"
	default:
		status["redis"] = "unhealthy"
	}

	status["websocket_clients"] = s.hub.ClientCount()
	successResponse(c, status)
}

func splitFilter(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// recomputeStats rebuilds the summary after filtering
func recomputeStats(records []patterns.Record) patterns.Stats {
	return patterns.ComputeStats(records)
}
