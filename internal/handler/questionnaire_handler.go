package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/middleware"
	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/questionnaire"
	"github.com/hackmate/hackathon-console/internal/response"
	"github.com/hackmate/hackathon-console/internal/service"
	"github.com/hackmate/hackathon-console/internal/validator"
)

// QuestionnaireService is the wizard API the handler drives.
type QuestionnaireService interface {
	Start(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error)
	Get(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error)
	Answer(ctx context.Context, hackathonID string, claims *service.Claims, questionID string, value []byte) (questionnaire.View, error)
	Toggle(ctx context.Context, hackathonID string, claims *service.Claims, questionID, optionID string) (questionnaire.View, error)
	Navigate(ctx context.Context, hackathonID string, claims *service.Claims, req model.NavigateRequest) (questionnaire.View, error)
	Refresh(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error)
	Submit(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error)
	Discard(ctx context.Context, hackathonID string, claims *service.Claims) error
}

// QuestionnaireHandler serves the participant questionnaire wizard.
type QuestionnaireHandler struct {
	questionnaireService QuestionnaireService
	log                  zerolog.Logger
}

// NewQuestionnaireHandler creates a new QuestionnaireHandler.
func NewQuestionnaireHandler(questionnaireService QuestionnaireService, log zerolog.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		questionnaireService: questionnaireService,
		log:                  log.With().Str("component", "questionnaire_handler").Logger(),
	}
}

// StartQuestionnaire godoc
// POST /api/v1/participant/hackathons/:hackathon_id/questionnaire
// Opens the wizard, resuming a stored session when there is one.
func (h *QuestionnaireHandler) StartQuestionnaire(c *gin.Context) {
	h.run(c, http.StatusOK, func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error) {
		return h.questionnaireService.Start(ctx, hackathonID, claims)
	})
}

// GetQuestionnaire godoc
// GET /api/v1/participant/hackathons/:hackathon_id/questionnaire
func (h *QuestionnaireHandler) GetQuestionnaire(c *gin.Context) {
	h.run(c, http.StatusOK, func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error) {
		return h.questionnaireService.Get(ctx, hackathonID, claims)
	})
}

// DiscardQuestionnaire godoc
// DELETE /api/v1/participant/hackathons/:hackathon_id/questionnaire
// Drops the stored session. Submitted responses are not affected.
func (h *QuestionnaireHandler) DiscardQuestionnaire(c *gin.Context) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	if err := h.questionnaireService.Discard(c.Request.Context(), hackathonID, middleware.GetClaims(c)); err != nil {
		h.log.Error().Err(err).Str("hackathon_id", hackathonID).Msg("Discard questionnaire failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "questionnaire discarded"})
}

// SetAnswer godoc
// PUT /api/v1/participant/hackathons/:hackathon_id/questionnaire/answers/:question_id
// Stores the value of one question. The value shape follows the question kind.
func (h *QuestionnaireHandler) SetAnswer(c *gin.Context) {
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if len(req.Value) == 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"value": "value is a required field"})
		return
	}

	h.run(c, http.StatusOK, func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error) {
		return h.questionnaireService.Answer(ctx, hackathonID, claims, questionID, req.Value)
	})
}

// ToggleOption godoc
// POST /api/v1/participant/hackathons/:hackathon_id/questionnaire/answers/:question_id/options/:option_id/toggle
func (h *QuestionnaireHandler) ToggleOption(c *gin.Context) {
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}
	optionID, ok := pathID(c, "option_id")
	if !ok {
		return
	}

	h.run(c, http.StatusOK, func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error) {
		return h.questionnaireService.Toggle(ctx, hackathonID, claims, questionID, optionID)
	})
}

// Navigate godoc
// POST /api/v1/participant/hackathons/:hackathon_id/questionnaire/navigate
func (h *QuestionnaireHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.run(c, http.StatusOK, func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error) {
		return h.questionnaireService.Navigate(ctx, hackathonID, claims, req)
	})
}

// RefreshQuestionnaire godoc
// POST /api/v1/participant/hackathons/:hackathon_id/questionnaire/refresh
// Reloads the questions from the backend, keeping answers that still apply.
func (h *QuestionnaireHandler) RefreshQuestionnaire(c *gin.Context) {
	h.run(c, http.StatusOK, func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error) {
		return h.questionnaireService.Refresh(ctx, hackathonID, claims)
	})
}

// SubmitQuestionnaire godoc
// POST /api/v1/participant/hackathons/:hackathon_id/questionnaire/submit
func (h *QuestionnaireHandler) SubmitQuestionnaire(c *gin.Context) {
	h.run(c, http.StatusOK, func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error) {
		return h.questionnaireService.Submit(ctx, hackathonID, claims)
	})
}

type questionnaireOp func(ctx context.Context, hackathonID string, claims *service.Claims) (questionnaire.View, error)

func (h *QuestionnaireHandler) run(c *gin.Context, status int, op questionnaireOp) {
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	v, err := op(c.Request.Context(), hackathonID, claims)
	if err != nil {
		h.fail(c, hackathonID, v, err)
		return
	}
	response.Success(c, status, gin.H{"questionnaire": v})
}

// fail maps wizard errors to responses. Errors raised after the session was
// loaded carry the current view so the client can re-render.
func (h *QuestionnaireHandler) fail(c *gin.Context, hackathonID string, v questionnaire.View, err error) {
	data := gin.H{"questionnaire": v}

	var verr *questionnaire.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FailWithDetails(c, http.StatusUnprocessableEntity, response.ErrAnswersInvalid, verr.Fields(), data)
	case errors.Is(err, service.ErrNoSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestionnaire)
	case errors.Is(err, questionnaire.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, questionnaire.ErrUnknownOption):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownOption)
	case errors.Is(err, questionnaire.ErrInvalidValue), errors.Is(err, questionnaire.ErrNotChoice):
		response.FailWithDetails(c, http.StatusUnprocessableEntity, response.ErrInvalidAnswer, nil, data)
	case errors.Is(err, questionnaire.ErrSelectionCap):
		response.FailWithDetails(c, http.StatusConflict, response.ErrSelectionCap, nil, data)
	case errors.Is(err, questionnaire.ErrNotReady):
		response.FailWithDetails(c, http.StatusConflict, response.ErrNotReady, nil, data)
	case errors.Is(err, service.ErrSubmitInProgress), errors.Is(err, questionnaire.ErrSubmitInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInProgress)
	case errors.Is(err, questionnaire.ErrAlreadySubmitted):
		response.FailWithDetails(c, http.StatusConflict, response.ErrAlreadySubmitted, nil, data)
	case errors.Is(err, questionnaire.ErrSubmitFailed):
		h.log.Warn().Err(err).Str("hackathon_id", hackathonID).Msg("Questionnaire submission failed")
		response.FailWithDetails(c, http.StatusBadGateway, response.ErrSubmitFailed, nil, data)
	case errors.Is(err, questionnaire.ErrUnknownKind), errors.Is(err, questionnaire.ErrDuplicateID):
		h.log.Error().Err(err).Str("hackathon_id", hackathonID).Msg("Backend returned a malformed questionnaire")
		response.Fail(c, http.StatusBadGateway, response.ErrQuestionnaireShape)
	case upstreamFailure(c, err):
		h.log.Warn().Err(err).Str("hackathon_id", hackathonID).Msg("Backend call failed")
	default:
		h.log.Error().Err(err).Str("hackathon_id", hackathonID).Msg("Questionnaire request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
