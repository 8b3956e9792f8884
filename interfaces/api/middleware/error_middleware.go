package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

// ErrorHandler renders errors returned from handlers in the standard
// envelope. Workflow errors are mapped by utils.AppErrorResponse.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var validation *utils.ValidationFailure
		if errors.As(err, &validation) {
			return utils.ValidationErrorResponse(c, validation.Details)
		}

		var e *fiber.Error
		if !errors.As(err, &e) {
			logger.ErrorContext(c.UserContext(), "Unhandled error", "path", c.Path(), "error", err)
			return utils.AppErrorResponse(c, err)
		}

		errCode := utils.ErrCodeInternalError
		switch e.Code {
		case fiber.StatusBadRequest:
			errCode = utils.ErrCodeBadRequest
		case fiber.StatusUnauthorized:
			errCode = utils.ErrCodeUnauthorized
		case fiber.StatusForbidden:
			errCode = utils.ErrCodeForbidden
		case fiber.StatusNotFound:
			errCode = utils.ErrCodeNotFound
		case fiber.StatusConflict:
			errCode = utils.ErrCodeConflict
		case fiber.StatusRequestEntityTooLarge:
			errCode = utils.ErrCodeValidation
		}
		if e.Code >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "Request failed", "path", c.Path(), "error", err)
		}

		return utils.ErrorResponse(c, e.Code, errCode, e.Message, nil)
	}
}
