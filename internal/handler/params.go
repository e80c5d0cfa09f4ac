package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hackmate/hackathon-console/internal/backend"
	"github.com/hackmate/hackathon-console/internal/response"
	"github.com/hackmate/hackathon-console/internal/teamboard"
)

// maxIDLength bounds path identifiers forwarded to the backend.
const maxIDLength = 100

// pathID reads a path identifier, failing the request when it is blank or
// too long.
func pathID(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" || len(id) > maxIDLength {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id, true
}

// parseViewport maps the viewport query value; empty means wide.
func parseViewport(s string) (teamboard.Viewport, bool) {
	switch vp := teamboard.Viewport(s); vp {
	case "":
		return teamboard.ViewportWide, true
	case teamboard.ViewportNarrow, teamboard.ViewportMedium, teamboard.ViewportWide:
		return vp, true
	default:
		return "", false
	}
}

// upstreamFailure writes the response for errors raised by the hackathon
// backend and reports whether err was one.
func upstreamFailure(c *gin.Context, err error) bool {
	if errors.Is(err, backend.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return true
	}
	var apiErr *backend.APIError
	var urlErr *url.Error
	if errors.As(err, &apiErr) || errors.As(err, &urlErr) {
		response.Fail(c, http.StatusBadGateway, response.ErrBackendUnavailable)
		return true
	}
	return false
}
