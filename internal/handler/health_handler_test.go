package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/response"
)

type fixedDepth int64

func (d fixedDepth) Len(context.Context) (int64, error) { return int64(d), nil }

func TestHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		state  string
	}{
		{"all up", map[string]HealthCheck{"postgres": up, "redis": up}, http.StatusOK, "ok"},
		{"redis down", map[string]HealthCheck{"postgres": up, "redis": down}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.checks, fixedDepth(3), zerolog.Nop()).Health)

			w, env := do(t, r, http.MethodGet, "/health", nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, body %s", w.Code, w.Body)
			}

			var data struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
				Queued int64             `json:"board_intents_queued"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if data.Status != tt.state || data.Queued != 3 || len(data.Checks) != 2 {
				t.Fatalf("data = %+v", data)
			}
			if tt.status != http.StatusOK && errCode(env) != response.ErrInternal {
				t.Fatalf("code = %s", errCode(env))
			}
		})
	}
}
