package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"taskflow/domain/dto"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

type WorkflowHandler struct {
	approvalService services.ApprovalService
}

func NewWorkflowHandler(approvalService services.ApprovalService) *WorkflowHandler {
	return &WorkflowHandler{approvalService: approvalService}
}

// Transitions publishes the transition table so clients never hard-code it.
func (h *WorkflowHandler) Transitions(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, dto.TransitionTableToResponse())
}

// SweepOverdue runs the overdue sweep on demand. The body may pin "now".
func (h *WorkflowHandler) SweepOverdue(c *fiber.Ctx) error {
	ctx := c.UserContext()

	actor, err := currentActor(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
	}

	var req dto.SweepOverdueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.BadRequestResponse(c, "Invalid request body")
		}
	}
	now := time.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
	}

	result, err := h.approvalService.RunOverdueSweep(ctx, actor, now)
	if err != nil {
		logger.ErrorContext(ctx, "Manual overdue sweep failed", "error", err)
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.SweepResultToResponse(result))
}
