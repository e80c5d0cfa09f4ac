// Package backend is the HTTP client for the hackathon backend, which owns
// questionnaires, responses and teams.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/model"
)

// ErrNotFound is wrapped by APIError for 404 responses.
var ErrNotFound = errors.New("backend resource not found")

// maxErrorBody caps how much of a failed response body is kept on APIError.
const maxErrorBody = 4 << 10

// APIError is returned for non-2xx backend responses.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap maps 404 responses to ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client calls the hackathon backend. The base URL is injected; paths are
// always resolved against it.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Client.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

// NewClientFromConfig builds a Client from the backend settings in cfg.
func NewClientFromConfig(cfg *config.Config, log zerolog.Logger) *Client {
	return NewClient(cfg.BackendAPIURL, cfg.BackendAPIKey, cfg.BackendTimeout, log)
}

// ─── Questionnaire ──────────────────────────────────────────────────────

// ListQuestions returns the questionnaire of a hackathon.
func (c *Client) ListQuestions(ctx context.Context, hackathonID string) ([]model.Question, error) {
	var out []model.Question
	if err := c.do(ctx, http.MethodGet, hackathonPath(hackathonID, "questions"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitResponses stores a participant's questionnaire responses.
func (c *Client) SubmitResponses(ctx context.Context, hackathonID, participantID string, rows []model.SubmissionRow) error {
	body := model.SubmitResponsesRequest{ParticipantID: participantID, Rows: rows}
	return c.do(ctx, http.MethodPost, hackathonPath(hackathonID, "responses"), body, nil)
}

// ─── Teams ──────────────────────────────────────────────────────────────

// ListTeams returns the current teams of a hackathon.
func (c *Client) ListTeams(ctx context.Context, hackathonID string) ([]model.Team, error) {
	var out []model.Team
	if err := c.do(ctx, http.MethodGet, hackathonPath(hackathonID, "teams"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MoveMember reassigns a participant from one team to another.
func (c *Client) MoveMember(ctx context.Context, hackathonID string, intent model.MoveIntent) error {
	return c.do(ctx, http.MethodPost, hackathonPath(hackathonID, "teams", "moves"), intent, nil)
}

// RenameTeam changes a team's display name.
func (c *Client) RenameTeam(ctx context.Context, hackathonID, teamID, name string) error {
	body := map[string]string{"name": name}
	return c.do(ctx, http.MethodPatch, hackathonPath(hackathonID, "teams", teamID), body, nil)
}

// DeleteTeam deletes a team. Its members stay registered for the hackathon.
func (c *Client) DeleteTeam(ctx context.Context, hackathonID, teamID string) error {
	return c.do(ctx, http.MethodDelete, hackathonPath(hackathonID, "teams", teamID), nil, nil)
}

// RemoveMember detaches a participant from a team.
func (c *Client) RemoveMember(ctx context.Context, hackathonID, teamID, participantID string) error {
	path := hackathonPath(hackathonID, "teams", teamID, "members", participantID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ─── Transport ──────────────────────────────────────────────────────────

func hackathonPath(hackathonID string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/hackathons/")
	b.WriteString(url.PathEscape(hackathonID))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
