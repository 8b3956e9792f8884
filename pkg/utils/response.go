package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/domain/apperrors"
)

// ========== Response Structures ==========

type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ========== Error Code Constants ==========

const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeRateLimited   = "RATE_LIMITED"

	ErrCodeIllegalTransition = "ILLEGAL_TRANSITION"
)

// ========== Success Responses ==========

func SuccessResponse(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
	})
}

func CreatedResponse(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Data:    data,
	})
}

// ========== Error Responses ==========

func ErrorResponse(c *fiber.Ctx, statusCode int, code, message string, details any) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func ValidationErrorResponse(c *fiber.Ctx, details any) error {
	return ErrorResponse(
		c,
		fiber.StatusBadRequest,
		ErrCodeValidation,
		"Validation failed",
		details,
	)
}

func BadRequestResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(
		c,
		fiber.StatusBadRequest,
		ErrCodeBadRequest,
		message,
		nil,
	)
}

func UnauthorizedResponse(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized"
	}
	return ErrorResponse(
		c,
		fiber.StatusUnauthorized,
		ErrCodeUnauthorized,
		message,
		nil,
	)
}

func ForbiddenResponse(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Forbidden"
	}
	return ErrorResponse(
		c,
		fiber.StatusForbidden,
		ErrCodeForbidden,
		message,
		nil,
	)
}

func NotFoundResponse(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return ErrorResponse(
		c,
		fiber.StatusNotFound,
		ErrCodeNotFound,
		message,
		nil,
	)
}

func InternalServerErrorResponse(c *fiber.Ctx) error {
	return ErrorResponse(
		c,
		fiber.StatusInternalServerError,
		ErrCodeInternalError,
		"Internal server error",
		nil,
	)
}

// AppErrorResponse maps the workflow error taxonomy onto HTTP statuses.
// Anything unrecognised, database errors included, becomes a 500 without
// leaking details.
func AppErrorResponse(c *fiber.Ctx, err error) error {
	var (
		validation *apperrors.ValidationError
		forbidden  *apperrors.AuthorizationError
		illegal    *apperrors.IllegalTransition
		notFound   *apperrors.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		return ErrorResponse(c, fiber.StatusBadRequest, ErrCodeValidation, validation.Error(), fiber.Map{
			"field": validation.Field,
		})
	case errors.As(err, &forbidden):
		return ForbiddenResponse(c, forbidden.Error())
	case errors.As(err, &illegal):
		return ErrorResponse(c, fiber.StatusConflict, ErrCodeIllegalTransition, illegal.Error(), fiber.Map{
			"from": illegal.From,
			"to":   illegal.To,
		})
	case errors.As(err, &notFound):
		return NotFoundResponse(c, notFound.Error())
	}
	return InternalServerErrorResponse(c)
}
