// internal/server/handlers.go
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mwiater/gridcast/internal/assistant"
	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/logging"
	"github.com/mwiater/gridcast/internal/outputs"
)

const aggregationNote = "On-the-fly aggregation of hourly predictions. For better accuracy, use natively trained models."

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type modelEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) models(c *gin.Context) {
	out := make([]modelEntry, 0, len(s.opts.Models))
	for _, m := range s.opts.Models {
		out = append(out, modelEntry{ID: m.ID, Name: m.Name})
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

func (s *Server) granularities(c *gin.Context) {
	all := granularity.All()
	out := make([]forecast.Granularity, 0, len(all))
	for _, g := range all {
		out = append(out, forecast.Granularity{
			Code:               string(g.Code),
			Name:               g.Name,
			DefaultHorizon:     g.DefaultHorizon,
			DefaultTestPeriods: g.DefaultTestPeriods,
		})
	}
	c.JSON(http.StatusOK, gin.H{"granularities": out})
}

func (s *Server) available(c *gin.Context) {
	avail, err := s.opts.Repository.Available()
	if err != nil {
		logging.WithComponent("server").WithError(err).Error("listing outputs failed")
		detail(c, http.StatusInternalServerError, "could not list available models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": avail})
}

func queryHorizon(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("horizon", "24")
	h, err := strconv.Atoi(raw)
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, fmt.Sprintf("horizon must be an integer, got %q", raw))
		return 0, false
	}
	return h, true
}

func (s *Server) output(ft outputs.FileType) gin.HandlerFunc {
	return func(c *gin.Context) {
		model := c.DefaultQuery("model", "xgb")
		horizon, ok := queryHorizon(c)
		if !ok {
			return
		}
		raw := c.DefaultQuery("granularity", "H")
		code := granularity.Code(raw)
		if !code.Valid() {
			detail(c, http.StatusBadRequest, fmt.Sprintf("Invalid granularity: %s. Valid codes: H, D, W, M, Y", raw))
			return
		}

		payload, err := s.opts.Repository.Read(c.Request.Context(), code, ft, model, horizon)
		var nf *outputs.NotFoundError
		switch {
		case errors.Is(err, outputs.ErrInvalidModel):
			detail(c, http.StatusBadRequest, err.Error())
			return
		case errors.As(err, &nf):
			detail(c, http.StatusNotFound, nf.Error())
			return
		case err != nil:
			logging.WithComponent("server").WithError(err).Error("reading output failed")
			detail(c, http.StatusInternalServerError, "could not read output file")
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}

func (s *Server) aggregated(c *gin.Context) {
	model := c.DefaultQuery("model", "xgb")
	horizon, ok := queryHorizon(c)
	if !ok {
		return
	}
	rawTarget := c.DefaultQuery("target_granularity", "D")
	target := granularity.Code(rawTarget)
	if target == granularity.Hourly {
		detail(c, http.StatusBadRequest, "Target granularity must be coarser than hourly (D, W, M, Y)")
		return
	}
	cfg, valid := target.Config()
	if !valid {
		detail(c, http.StatusBadRequest, fmt.Sprintf("Invalid target granularity: %s", rawTarget))
		return
	}

	series, err := s.opts.Repository.HourlySeries(c.Request.Context(), model, horizon)
	var nf *outputs.NotFoundError
	switch {
	case errors.Is(err, outputs.ErrInvalidModel):
		detail(c, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &nf):
		detail(c, http.StatusNotFound, nf.Error())
		return
	case errors.Is(err, forecast.ErrNoData):
		detail(c, http.StatusNotFound, "No prediction data found")
		return
	case err != nil:
		logging.WithComponent("server").WithError(err).Error("reading hourly series failed")
		detail(c, http.StatusInternalServerError, "could not read hourly predictions")
		return
	}

	rawAgg := c.DefaultQuery("aggregation", "sum")
	agg, err := outputs.ParseAggregation(rawAgg)
	if err != nil {
		detail(c, http.StatusBadRequest, fmt.Sprintf("Invalid aggregation: %s. Use 'sum' or 'mean'", rawAgg))
		return
	}
	points, err := outputs.Aggregate(series, target, agg)
	if err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"model":                   model,
		"source_granularity":      string(granularity.Hourly),
		"source_horizon":          horizon,
		"target_granularity":      string(target),
		"target_granularity_name": cfg.Name,
		"aggregation":             string(agg),
		"note":                    aggregationNote,
		"series":                  points,
	})
}

type chatBody struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

func (s *Server) chat(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusUnprocessableEntity, "request body must be JSON with a message field")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		detail(c, http.StatusUnprocessableEntity, "message is required")
		return
	}
	if s.opts.Assistant == nil {
		detail(c, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}
	if s.chatLimiter != nil && !s.chatLimiter.Allow() {
		detail(c, http.StatusTooManyRequests, "too many chat requests, try again shortly")
		return
	}

	reply, err := s.opts.Assistant.Reply(c.Request.Context(), assistant.Request{
		System:  assistant.BuildSystemPrompt(s.opts.SystemPrompt, body.Context),
		Message: body.Message,
	})
	if err != nil {
		logging.WithComponent("server").WithError(err).Warn("assistant call failed")
		detail(c, http.StatusBadGateway, "assistant is unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply.Content, "model": reply.Model})
}
