package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/middleware"
	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/response"
	"github.com/hackmate/hackathon-console/internal/service"
	"github.com/hackmate/hackathon-console/internal/teamboard"
	"github.com/hackmate/hackathon-console/internal/validator"
)

// BoardService is the organizer team board API.
type BoardService interface {
	Board(ctx context.Context, hackathonID string, claims *service.Claims, vp teamboard.Viewport) (service.BoardView, error)
	Move(ctx context.Context, hackathonID string, claims *service.Claims, destTeamID, payload string, vp teamboard.Viewport) (service.MoveResult, error)
	Rename(ctx context.Context, hackathonID string, claims *service.Claims, teamID, name string, trigger teamboard.CommitTrigger) (bool, error)
	DeleteTeam(ctx context.Context, hackathonID string, claims *service.Claims, teamID string, confirmed bool) (service.DeleteResult, error)
	RemoveMember(ctx context.Context, hackathonID string, claims *service.Claims, teamID, participantID string, confirmed bool) (service.DeleteResult, error)
	Activity(ctx context.Context, hackathonID string, page, perPage int) ([]model.BoardActivity, int, error)
}

// BoardHandler serves the organizer team board.
type BoardHandler struct {
	boardService BoardService
	log          zerolog.Logger
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(boardService BoardService, log zerolog.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		log:          log.With().Str("component", "board_handler").Logger(),
	}
}

// BoardQuery is the query of the board read and move endpoints.
type BoardQuery struct {
	Viewport string `form:"viewport" binding:"omitempty,oneof=narrow medium wide"`
}

// ConfirmQuery guards destructive board actions.
type ConfirmQuery struct {
	Confirm bool `form:"confirm"`
}

// ActivityQuery pages the board activity log.
type ActivityQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// GetBoard godoc
// GET /api/v1/admin/hackathons/:hackathon_id/board
// Returns the teams laid out for the requested viewport.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	vp, ok := h.viewport(c)
	if !ok {
		return
	}

	board, err := h.boardService.Board(c.Request.Context(), hackathonID, middleware.GetClaims(c), vp)
	if err != nil {
		h.fail(c, hackathonID, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"board": board})
}

// MoveMember godoc
// POST /api/v1/admin/hackathons/:hackathon_id/board/moves
// Applies a member card drop. A move answers 202 with the optimistic board;
// drops that change nothing answer 200.
func (h *BoardHandler) MoveMember(c *gin.Context) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	vp, ok := h.viewport(c)
	if !ok {
		return
	}

	var req model.MoveMemberRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.boardService.Move(c.Request.Context(), hackathonID, middleware.GetClaims(c), req.TeamID, req.Payload, vp)
	if err != nil {
		h.fail(c, hackathonID, err)
		return
	}

	status := http.StatusOK
	if res.Outcome == teamboard.DropMoved {
		status = http.StatusAccepted
	}
	response.Success(c, status, res)
}

// RenameTeam godoc
// PUT /api/v1/admin/hackathons/:hackathon_id/board/teams/:team_id/name
// Commits an in-place rename. Blank names and escape leave the team as is.
func (h *BoardHandler) RenameTeam(c *gin.Context) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	teamID, ok := pathID(c, "team_id")
	if !ok {
		return
	}

	var req model.RenameTeamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	queued, err := h.boardService.Rename(c.Request.Context(), hackathonID, middleware.GetClaims(c), teamID, req.Name, teamboard.CommitTrigger(req.Trigger))
	if err != nil {
		h.fail(c, hackathonID, err)
		return
	}

	status := http.StatusOK
	if queued {
		status = http.StatusAccepted
	}
	response.Success(c, status, gin.H{"queued": queued})
}

// DeleteTeam godoc
// DELETE /api/v1/admin/hackathons/:hackathon_id/board/teams/:team_id?confirm=true
// Without confirm=true it answers 428 with the confirmation prompt.
func (h *BoardHandler) DeleteTeam(c *gin.Context) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	teamID, ok := pathID(c, "team_id")
	if !ok {
		return
	}
	confirmed, ok := h.confirmed(c)
	if !ok {
		return
	}

	res, err := h.boardService.DeleteTeam(c.Request.Context(), hackathonID, middleware.GetClaims(c), teamID, confirmed)
	h.writeDelete(c, hackathonID, res, err)
}

// RemoveMember godoc
// DELETE /api/v1/admin/hackathons/:hackathon_id/board/teams/:team_id/members/:participant_id?confirm=true
func (h *BoardHandler) RemoveMember(c *gin.Context) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	teamID, ok := pathID(c, "team_id")
	if !ok {
		return
	}
	participantID, ok := pathID(c, "participant_id")
	if !ok {
		return
	}
	confirmed, ok := h.confirmed(c)
	if !ok {
		return
	}

	res, err := h.boardService.RemoveMember(c.Request.Context(), hackathonID, middleware.GetClaims(c), teamID, participantID, confirmed)
	h.writeDelete(c, hackathonID, res, err)
}

// ListActivity godoc
// GET /api/v1/admin/hackathons/:hackathon_id/board/activity
// Lists delivered board changes, newest first.
func (h *BoardHandler) ListActivity(c *gin.Context) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}

	var q ActivityQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	page, perPage := service.NormalizePage(q.Page, q.PerPage)

	items, total, err := h.boardService.Activity(c.Request.Context(), hackathonID, page, perPage)
	if err != nil {
		h.log.Error().Err(err).Str("hackathon_id", hackathonID).Msg("List board activity failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"activity": items}, response.NewPagination(page, perPage, total))
}

func (h *BoardHandler) viewport(c *gin.Context) (teamboard.Viewport, bool) {
	var q BoardQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return "", false
	}
	vp, _ := parseViewport(q.Viewport)
	return vp, true
}

func (h *BoardHandler) confirmed(c *gin.Context) (bool, bool) {
	var q ConfirmQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false, false
	}
	return q.Confirm, true
}

func (h *BoardHandler) writeDelete(c *gin.Context, hackathonID string, res service.DeleteResult, err error) {
	if err != nil {
		h.fail(c, hackathonID, err)
		return
	}
	if !res.Executed {
		response.FailWithMessage(c, http.StatusPreconditionRequired, response.ErrConfirmationRequired, res.Confirmation.Message, gin.H{"confirmation": res.Confirmation})
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"confirmation": res.Confirmation, "queued": true})
}

func (h *BoardHandler) fail(c *gin.Context, hackathonID string, err error) {
	switch {
	case errors.Is(err, teamboard.ErrUnknownTeam):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownTeam)
	case errors.Is(err, teamboard.ErrUnknownMember):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownMember)
	case errors.Is(err, teamboard.ErrUnavailable):
		response.Fail(c, http.StatusForbidden, response.ErrPermissionDenied)
	case errors.Is(err, service.ErrIntentNotQueued):
		h.log.Error().Err(err).Str("hackathon_id", hackathonID).Msg("Board intent not queued")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrIntentQueue)
	case upstreamFailure(c, err):
		h.log.Warn().Err(err).Str("hackathon_id", hackathonID).Msg("Backend call failed")
	default:
		h.log.Error().Err(err).Str("hackathon_id", hackathonID).Msg("Board request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
