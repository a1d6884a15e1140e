package models

// ErrorCode is the closed taxonomy every failure in the system maps into.
type ErrorCode string

const (
	ErrInvalidURL       ErrorCode = "INVALID_URL"
	ErrVideoNotFound    ErrorCode = "VIDEO_NOT_FOUND"
	ErrVideoUnavailable ErrorCode = "VIDEO_UNAVAILABLE"
	ErrExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrAnalysisFailed   ErrorCode = "ANALYSIS_FAILED"
	ErrServiceError     ErrorCode = "SERVICE_ERROR"
	ErrNetworkError     ErrorCode = "NETWORK_ERROR"
	ErrTimeout          ErrorCode = "TIMEOUT"
	ErrRateLimited      ErrorCode = "RATE_LIMITED"
	ErrUnknown          ErrorCode = "UNKNOWN"
)

var errorMessages = map[ErrorCode]string{
	ErrInvalidURL:       "Please enter a valid YouTube URL",
	ErrVideoNotFound:    "Video not found. Please check the URL and try again.",
	ErrVideoUnavailable: "This video is not available for analysis (may be private or age-restricted)",
	ErrExtractionFailed: "Failed to extract audio from the video",
	ErrAnalysisFailed:   "Audio analysis failed. Please try again.",
	ErrServiceError:     "Our analysis service is temporarily unavailable",
	ErrNetworkError:     "Network connection lost. Please check your internet.",
	ErrTimeout:          "Request timed out. Please try again.",
	ErrRateLimited:      "Too many requests. Please wait a moment and try again.",
	ErrUnknown:          "An unexpected error occurred",
}

// AppError is the user-facing form of a failure: a taxonomy code, its fixed
// message, and whether a retry affordance should be offered.
type AppError struct {
	Code      ErrorCode
	Message   string
	Details   string
	Retryable bool
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return string(e.Code) + ": " + e.Message + " (" + e.Details + ")"
	}
	return string(e.Code) + ": " + e.Message
}

// NewAppError builds an AppError for a known code. Codes outside the taxonomy
// collapse to UNKNOWN.
func NewAppError(code ErrorCode, details string) *AppError {
	msg, ok := errorMessages[code]
	if !ok {
		code = ErrUnknown
		msg = errorMessages[ErrUnknown]
	}
	return &AppError{
		Code:      code,
		Message:   msg,
		Details:   details,
		Retryable: code == ErrNetworkError || code == ErrTimeout || code == ErrServiceError,
	}
}

// KnownCode reports whether code is part of the taxonomy.
func KnownCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}

// ErrorText returns the fixed human-readable text for a code.
func ErrorText(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return errorMessages[ErrUnknown]
}
