package response

import "github.com/formpulse/formpulse-backend/internal/access"

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden      ErrCode = "FORBIDDEN"
	ErrNotSurveyOwner ErrCode = "NOT_SURVEY_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Survey lifecycle ──────────────────────────────────────────────
	ErrSurveyNotDraft     ErrCode = "SURVEY_NOT_DRAFT"
	ErrSurveyNotPublished ErrCode = "SURVEY_NOT_PUBLISHED"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrAllowlistRequired  ErrCode = "ALLOWLIST_REQUIRED"
	ErrInvalidDateWindow  ErrCode = "INVALID_DATE_WINDOW"

	// ─── Access decisions ──────────────────────────────────────────────
	// One code per evaluator reason; the mapping must stay total so no
	// denial ever falls back to a generic message.
	ErrSurveyInactive         ErrCode = "SURVEY_INACTIVE"
	ErrSurveyNotYetStarted    ErrCode = "SURVEY_NOT_YET_STARTED"
	ErrSurveyExpired          ErrCode = "SURVEY_EXPIRED"
	ErrPasswordRequired       ErrCode = "PASSWORD_REQUIRED"
	ErrPasswordIncorrect      ErrCode = "PASSWORD_INCORRECT"
	ErrEmailNotAllowlisted    ErrCode = "EMAIL_NOT_ALLOWLISTED"
	ErrAuthenticationRequired ErrCode = "AUTHENTICATION_REQUIRED"

	// ─── Responses ─────────────────────────────────────────────────────
	ErrResponseCompleted ErrCode = "RESPONSE_ALREADY_COMPLETED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// AccessCode maps an evaluator decision reason to its API error code.
// access.ReasonOK has no error code and maps to the zero value.
func AccessCode(reason access.Reason) ErrCode {
	switch reason {
	case access.ReasonInactive:
		return ErrSurveyInactive
	case access.ReasonNotYetStarted:
		return ErrSurveyNotYetStarted
	case access.ReasonExpired:
		return ErrSurveyExpired
	case access.ReasonPasswordRequired:
		return ErrPasswordRequired
	case access.ReasonPasswordIncorrect:
		return ErrPasswordIncorrect
	case access.ReasonEmailNotAllowlisted:
		return ErrEmailNotAllowlisted
	case access.ReasonAuthenticationRequired:
		return ErrAuthenticationRequired
	default:
		return ""
	}
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrEmailTaken:
		return "An account with this email already exists."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrNotSurveyOwner:
		return "You are not the owner of this survey."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Survey lifecycle ──────────────────────────────────────────────
	case ErrSurveyNotDraft:
		return "This survey is not in DRAFT status."
	case ErrSurveyNotPublished:
		return "This survey has not been published."
	case ErrNoQuestions:
		return "This survey has no questions."
	case ErrAllowlistRequired:
		return "A restricted survey needs at least one allowed email."
	case ErrInvalidDateWindow:
		return "The start date must be before the end date."

	// ─── Access decisions ──────────────────────────────────────────────
	case ErrSurveyInactive:
		return "This survey is not currently accepting responses."
	case ErrSurveyNotYetStarted:
		return "This survey has not opened yet."
	case ErrSurveyExpired:
		return "This survey has closed."
	case ErrPasswordRequired:
		return "This survey requires a password."
	case ErrPasswordIncorrect:
		return "The survey password is incorrect."
	case ErrEmailNotAllowlisted:
		return "Your email is not on this survey's access list."
	case ErrAuthenticationRequired:
		return "You must be signed in to access this survey."

	// ─── Responses ─────────────────────────────────────────────────────
	case ErrResponseCompleted:
		return "This response has already been submitted."

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
