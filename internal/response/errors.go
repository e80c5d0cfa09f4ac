package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrPermissionDenied      ErrCode = "PERMISSION_DENIED"
	ErrParticipantAccessOnly ErrCode = "PARTICIPANT_ACCESS_ONLY"
	ErrOrganizerAccessOnly   ErrCode = "ORGANIZER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Questionnaire ─────────────────────────────────────────────────
	ErrNoQuestionnaire    ErrCode = "QUESTIONNAIRE_NOT_STARTED"
	ErrUnknownQuestion    ErrCode = "UNKNOWN_QUESTION"
	ErrUnknownOption      ErrCode = "UNKNOWN_OPTION"
	ErrInvalidAnswer      ErrCode = "INVALID_ANSWER"
	ErrSelectionCap       ErrCode = "SELECTION_LIMIT_REACHED"
	ErrNotReady           ErrCode = "REQUIRED_QUESTIONS_UNANSWERED"
	ErrAnswersInvalid     ErrCode = "ANSWERS_INVALID"
	ErrSubmitInProgress   ErrCode = "SUBMIT_IN_PROGRESS"
	ErrAlreadySubmitted   ErrCode = "QUESTIONNAIRE_ALREADY_SUBMITTED"
	ErrSubmitFailed       ErrCode = "SUBMIT_FAILED"
	ErrQuestionnaireShape ErrCode = "QUESTIONNAIRE_MALFORMED"

	// ─── Team board ────────────────────────────────────────────────────
	ErrUnknownTeam          ErrCode = "UNKNOWN_TEAM"
	ErrUnknownMember        ErrCode = "UNKNOWN_TEAM_MEMBER"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrIntentQueue          ErrCode = "INTENT_NOT_QUEUED"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrBackendUnavailable ErrCode = "BACKEND_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrParticipantAccessOnly:
		return "This resource is restricted to participants."
	case ErrOrganizerAccessOnly:
		return "This resource is restricted to organizers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Questionnaire ─────────────────────────────────────────────────
	case ErrNoQuestionnaire:
		return "Start the questionnaire first."
	case ErrUnknownQuestion:
		return "This question is not part of the questionnaire."
	case ErrUnknownOption:
		return "This option is not offered by the question."
	case ErrInvalidAnswer:
		return "The answer does not match the question type."
	case ErrSelectionCap:
		return "The maximum number of selections is reached."
	case ErrNotReady:
		return "Answer all required questions before submitting."
	case ErrAnswersInvalid:
		return "Some answers need your attention."
	case ErrSubmitInProgress:
		return "Your answers are already being submitted."
	case ErrAlreadySubmitted:
		return "Your answers have already been submitted."
	case ErrSubmitFailed:
		return "Failed to submit your answers. Please try again."
	case ErrQuestionnaireShape:
		return "The questionnaire could not be loaded."

	// ─── Team board ────────────────────────────────────────────────────
	case ErrUnknownTeam:
		return "Team not found on the board."
	case ErrUnknownMember:
		return "Participant is not a member of this team."
	case ErrConfirmationRequired:
		return "This action must be confirmed."
	case ErrIntentQueue:
		return "The change could not be queued. Please try again."

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrBackendUnavailable:
		return "The hackathon service is unavailable. Please try again later."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
