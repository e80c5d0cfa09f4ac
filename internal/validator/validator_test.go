package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type sample struct {
	TeamID string `json:"team_id" binding:"required,notblank"`
	Name   string `json:"name" binding:"max=5"`
}

type sampleQuery struct {
	Viewport string `form:"viewport" binding:"omitempty,oneof=narrow medium wide"`
}

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func contextWith(method, target, body string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBind(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"valid", `{"team_id":"t1","name":"abc"}`, ""},
		{"missing", `{"name":"abc"}`, "team_id"},
		{"blank", `{"team_id":"   "}`, "team_id"},
		{"too long", `{"team_id":"t1","name":"abcdef"}`, "name"},
		{"syntax", `{`, "detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst sample
			fields := Bind(contextWith(http.MethodPost, "/", tt.body), &dst)
			if tt.wantField == "" {
				if fields != nil {
					t.Fatalf("fields = %v", fields)
				}
				return
			}
			if _, ok := fields[tt.wantField]; !ok {
				t.Fatalf("fields = %v, want key %q", fields, tt.wantField)
			}
		})
	}
}

func TestBlankMessageIsTranslated(t *testing.T) {
	var dst sample
	fields := Bind(contextWith(http.MethodPost, "/", `{"team_id":" "}`), &dst)
	if fields["team_id"] != "team_id must not be blank" {
		t.Fatalf("message = %q", fields["team_id"])
	}
}

func TestBindQuery(t *testing.T) {
	var ok sampleQuery
	if fields := BindQuery(contextWith(http.MethodGet, "/?viewport=wide", ""), &ok); fields != nil {
		t.Fatalf("fields = %v", fields)
	}
	var bad sampleQuery
	if fields := BindQuery(contextWith(http.MethodGet, "/?viewport=huge", ""), &bad); fields["viewport"] == "" {
		t.Fatalf("fields = %v", fields)
	}
}
