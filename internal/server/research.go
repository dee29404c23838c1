package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/stockscout/internal/agent/core"
)

type ResearchHandler struct {
	Researcher Researcher
	Logger     *log.Logger
}

func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("/research", h.research)
}

func (h *ResearchHandler) research(c echo.Context) error {
	var req core.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	if req.MaxLinksPerQuery < 0 || req.MaxSubqueries < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "limits cannot be negative")
	}
	if sub, ok := SubjectFromContext(c.Request().Context()); ok {
		h.Logger.Printf("research requested by %s: %s", sub, req.Topic)
	}
	report := h.Researcher.Run(c.Request().Context(), req)
	return c.JSON(http.StatusOK, report)
}
