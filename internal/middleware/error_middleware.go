package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

type errorRule struct {
	targets []error
	status  int
	code    dto.ErrorCode
}

// errorRules is checked in order; the first rule with a matching target wins
var errorRules = []errorRule{
	{
		targets: []error{apperrors.ErrInvalidCredentials},
		status:  http.StatusUnauthorized,
		code:    dto.ErrorCodeInvalidCredentials,
	},
	{
		targets: []error{apperrors.ErrTokenExpired},
		status:  http.StatusUnauthorized,
		code:    dto.ErrorCodeExpiredToken,
	},
	{
		targets: []error{apperrors.ErrTokenNotFound},
		status:  http.StatusUnauthorized,
		code:    dto.ErrorCodeTokenNotFound,
	},
	{
		targets: []error{apperrors.ErrTokenInvalid, apperrors.ErrTokenRevoked},
		status:  http.StatusUnauthorized,
		code:    dto.ErrorCodeInvalidToken,
	},
	{
		targets: []error{apperrors.ErrAccountNotApproved},
		status:  http.StatusForbidden,
		code:    dto.ErrorCodeAccountNotApproved,
	},
	{
		targets: []error{apperrors.ErrPermissionDenied},
		status:  http.StatusForbidden,
		code:    dto.ErrorCodeForbidden,
	},
	{
		targets: []error{
			apperrors.ErrResourceNotFound,
			apperrors.ErrUserNotFound,
			apperrors.ErrCourseNotFound,
			apperrors.ErrSectionCourseNotFound,
			apperrors.ErrStudentNotFound,
			apperrors.ErrEnrollmentNotFound,
			apperrors.ErrSyllabusNotFound,
			apperrors.ErrILONotFound,
			apperrors.ErrAssessmentNotFound,
			apperrors.ErrSubAssessmentNotFound,
			apperrors.ErrSessionNotFound,
		},
		status: http.StatusNotFound,
		code:   dto.ErrorCodeResourceNotFound,
	},
	{
		targets: []error{
			apperrors.ErrResourceAlreadyExists,
			apperrors.ErrEmailAlreadyExists,
			apperrors.ErrCourseCodeExists,
			apperrors.ErrSectionOfferingExists,
			apperrors.ErrStudentNumberExists,
			apperrors.ErrAlreadyEnrolled,
			apperrors.ErrILOCodeExists,
			apperrors.ErrSessionExists,
		},
		status: http.StatusConflict,
		code:   dto.ErrorCodeResourceAlreadyExists,
	},
	{
		targets: []error{apperrors.ErrConflict, apperrors.ErrSyllabusNotReviewable},
		status:  http.StatusConflict,
		code:    dto.ErrorCodeConflict,
	},
	{
		targets: []error{
			apperrors.ErrValidationFailed,
			apperrors.ErrBadRequest,
			apperrors.ErrScoreOutOfRange,
			apperrors.ErrInvalidAttendanceState,
			apperrors.ErrEnrollmentNotInSection,
		},
		status: http.StatusBadRequest,
		code:   dto.ErrorCodeValidationFailed,
	},
	{
		targets: []error{apperrors.ErrReportStoreUnavailable},
		status:  http.StatusServiceUnavailable,
		code:    dto.ErrorCodeExternalServiceError,
	},
}

// HandleAPIError writes the error envelope matching err. Unknown errors
// become a 500 whose message never leaks the underlying cause.
func HandleAPIError(c *gin.Context, err error) {
	for _, rule := range errorRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				c.JSON(rule.status, dto.NewErrorResponse(dto.NewErrorDetail(rule.code, publicMessage(err, target))))
				return
			}
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
}

// publicMessage prefers the message of a CustomError over the sentinel text,
// so wrapped database errors are never shown to clients
func publicMessage(err, target error) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return target.Error()
}

// HandleBindError answers a request whose body or query failed binding
func HandleBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}
