package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Identity ──────────────────────────────────────────────────────
	ErrInvalidCredentials     ErrCode = "INVALID_CREDENTIALS"
	ErrPhoneAlreadyRegistered ErrCode = "PHONE_ALREADY_REGISTERED"
	ErrAlreadyAttempted       ErrCode = "ALREADY_ATTEMPTED"
	ErrNoActiveSession        ErrCode = "NO_ACTIVE_SESSION"
	ErrSessionInvalidated     ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired          ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid           ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrQuestionsUnavailable ErrCode = "QUESTIONS_UNAVAILABLE"
	ErrResultNotReady       ErrCode = "RESULT_NOT_READY"
	ErrExamNotInProgress    ErrCode = "EXAM_NOT_IN_PROGRESS"
	ErrAnswerRequired       ErrCode = "ANSWER_REQUIRED"
	ErrJumpNotAllowed       ErrCode = "JUMP_NOT_ALLOWED"
	ErrSubmissionDropped    ErrCode = "SUBMISSION_DROPPED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Identity ──────────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid credentials. Please check your name and phone number."
	case ErrPhoneAlreadyRegistered:
		return "This phone number is already registered."
	case ErrAlreadyAttempted:
		return "You have already attempted the exam."
	case ErrNoActiveSession:
		return "No active exam session. Please log in again."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrQuestionsUnavailable:
		return "Failed to load exam questions. Please try again later."
	case ErrResultNotReady:
		return "No exam result is available for this session."
	case ErrExamNotInProgress:
		return "The exam is not in progress."
	case ErrAnswerRequired:
		return "Please answer the current question before proceeding to the next one."
	case ErrJumpNotAllowed:
		return "You can only navigate to questions that have been answered."
	case ErrSubmissionDropped:
		return "The exam is already being submitted."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests from this IP, please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
