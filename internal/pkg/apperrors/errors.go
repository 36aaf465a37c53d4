package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountNotApproved = errors.New("account is awaiting approval")

	ErrPermissionDenied = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Academic structure errors
var (
	ErrCourseNotFound         = errors.New("course not found")
	ErrCourseCodeExists       = errors.New("course code already exists")
	ErrSectionCourseNotFound  = errors.New("section course not found")
	ErrSectionOfferingExists  = errors.New("this section already exists for the term")
	ErrStudentNotFound        = errors.New("student not found")
	ErrStudentNumberExists    = errors.New("student number already exists")
	ErrEnrollmentNotFound     = errors.New("enrollment not found")
	ErrAlreadyEnrolled        = errors.New("student is already enrolled in this section")
	ErrSyllabusNotFound       = errors.New("syllabus not found")
	ErrSyllabusNotReviewable  = errors.New("syllabus is not pending review")
	ErrILONotFound            = errors.New("ILO not found")
	ErrILOCodeExists          = errors.New("ILO code already exists in this syllabus")
	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrSubAssessmentNotFound  = errors.New("sub-assessment not found")
	ErrScoreOutOfRange        = errors.New("score must be between 0 and the item's total points")
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionExists          = errors.New("a session of this type already exists on that date")
	ErrInvalidAttendanceState = errors.New("invalid attendance status")
	ErrEnrollmentNotInSection = errors.New("enrollment is not active in the session's section")
)

// Report errors
var (
	ErrReportStoreUnavailable = errors.New("report storage is not configured")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{Err: ErrResourceNotFound, Message: message}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

// NewValidationError wraps ErrValidationFailed with a caller-facing message
func NewValidationError(message string) error {
	return &CustomError{Err: ErrValidationFailed, Message: message}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
