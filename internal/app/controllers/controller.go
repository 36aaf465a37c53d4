// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/middleware"
)

// actorFrom returns the authenticated caller, answering 401 when JWTAuth did
// not run for the route
func actorFrom(ctx *gin.Context) (authz.Actor, bool) {
	userID, role, ok := middleware.CurrentUser(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "User not authenticated")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return authz.Actor{}, false
	}
	return authz.Actor{UserID: userID, Role: role}, true
}

// idParam parses a positive path parameter, answering 400 otherwise
func idParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+label).
			WithField(name).
			WithDetails(label + " must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// optionalIDQuery parses an optional positive query parameter. Zero means absent.
func optionalIDQuery(ctx *gin.Context, name string) (int64, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid query parameter").
			WithField(name).
			WithDetails(name + " must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// bindJSON binds and validates the request body, answering 400 on failure
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		middleware.HandleBindError(ctx, err)
		return false
	}
	return true
}

func respondOK(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data, message))
}

func respondCreated(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data, message))
}
