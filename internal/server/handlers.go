package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/agriscan/agriscan/internal/errors"
	"github.com/agriscan/agriscan/internal/stats"
)

// handleCurrent returns the most recent sample.
// GET /api/current
//
// An empty store yields a zero-valued object rather than an error: clients
// render "no data yet", they don't handle a missing document.
func (s *Server) handleCurrent(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	latest, err := s.store.LatestSample(ctx)
	if err != nil && !apperrors.Is(err, apperrors.ErrNoSamples) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"timestamp":  int64(0),
		"theta":      0.0,
		"psi_kpa":    0.0,
		"status":     "",
		"urgency":    "",
		"confidence": 0.0,
	}
	if latest != nil {
		resp["timestamp"] = latest.Timestamp
		resp["theta"] = round(latest.Theta, 4)
		resp["psi_kpa"] = round(latest.PsiKPa, 2)
		resp["status"] = latest.Status
		resp["urgency"] = latest.Urgency
		resp["confidence"] = round(latest.Confidence, 2)
	}

	c.JSON(http.StatusOK, resp)
}

// seriesPoint is one entry of the history response.
type seriesPoint struct {
	Timestamp int64   `json:"timestamp"`
	Theta     float64 `json:"theta"`
}

// handleSeries returns history in a time range, ascending, at most 200
// entries.
// GET /api/series?start=<unix>&end=<unix>
//
// Absent or malformed parameters default to zero, which yields an empty
// series; an empty array is a valid response, not an error.
func (s *Server) handleSeries(c *gin.Context) {
	start := queryInt64(c, "start")
	end := queryInt64(c, "end")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	samples, err := s.store.SamplesInRange(ctx, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	points := make([]seriesPoint, len(samples))
	for i := range samples {
		points[i] = seriesPoint{
			Timestamp: samples[i].Timestamp,
			Theta:     round(samples[i].Theta, 4),
		}
	}

	c.JSON(http.StatusOK, points)
}

// handleStats returns summary statistics of theta over a time range.
// GET /api/stats?start=<unix>&end=<unix>
func (s *Server) handleStats(c *gin.Context) {
	start := queryInt64(c, "start")
	end := queryInt64(c, "end")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	samples, err := s.store.SamplesInRange(ctx, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats.Summarize(samples))
}

// handleCalibration returns the active calibration snapshot.
// GET /api/calibration
func (s *Server) handleCalibration(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	doc, err := s.store.LatestCalibrationJSON(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(doc))
}

// exportRequest is the body of POST /api/export.
type exportRequest struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// handleExport writes a sample range to a Parquet file on local storage.
// POST /api/export {"start": <unix>, "end": <unix>}
func (s *Server) handleExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if req.End < req.Start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not precede start"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := s.exporter.ExportRange(ctx, req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// queryInt64 parses an integer query parameter, defaulting to zero when
// absent or malformed.
func queryInt64(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// round reduces v to the given number of decimal places. The JSON contract
// fixes precision per field so that series payloads stay compact.
func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
