package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskflow/domain/dto"
	"taskflow/domain/repositories"
	"taskflow/domain/services"
	"taskflow/domain/workflow"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

type TaskHandler struct {
	approvalService services.ApprovalService
}

func NewTaskHandler(approvalService services.ApprovalService) *TaskHandler {
	return &TaskHandler{
		approvalService: approvalService,
	}
}

// Submit ผู้ใช้ส่ง task ใหม่เพื่อรออนุมัติ
func (h *TaskHandler) Submit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor, err := currentActor(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.SubmitTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errors)
		return utils.ValidationErrorResponse(c, errors)
	}

	task, err := h.approvalService.SubmitTask(ctx, actor, req.ToInput())
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, dto.TaskToTaskResponse(task))
}

// CreateAssigned admin สร้าง task ที่มอบหมายแล้ว
func (h *TaskHandler) CreateAssigned(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor, err := currentActor(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.CreateAssignedTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errors)
		return utils.ValidationErrorResponse(c, errors)
	}

	task, err := h.approvalService.CreateAssignedTask(ctx, actor, req.ToInput())
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) GetByID(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.approvalService.GetTask(c.UserContext(), actor, taskID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

// List รองรับ filter, sort และ pagination
func (h *TaskHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor, err := currentActor(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.TaskFilterRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid query parameters")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	}
	offset := req.Normalize()

	query := services.ListTasksQuery{
		Pagination: repositories.Pagination{Offset: offset, Limit: req.Limit},
		Sort:       repositories.Sort{Field: req.SortBy, Direction: req.SortOrder},
	}
	if req.Status != "" {
		status, err := workflow.ParseStatus(req.Status)
		if err != nil {
			return utils.BadRequestResponse(c, err.Error())
		}
		query.Filter.Status = &status
	}
	if req.Priority != "" {
		priority := workflow.Priority(req.Priority)
		query.Filter.Priority = &priority
	}
	if req.AssignedUserID != "" {
		id := uuid.MustParse(req.AssignedUserID)
		query.Filter.AssignedUserID = &id
	}
	if req.AssignerID != "" {
		id := uuid.MustParse(req.AssignerID)
		query.Filter.AssignerID = &id
	}

	tasks, total, err := h.approvalService.ListTasks(ctx, actor, query)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, dto.TaskListResponse{
		Tasks:      dto.TasksToTaskResponses(tasks),
		Pagination: dto.NewPagination(req.Page, req.Limit, total),
	})
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	if err := h.approvalService.DeleteTask(c.UserContext(), actor, taskID); err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.Map{"message": "Task deleted successfully"})
}

func (h *TaskHandler) Approve(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	var req dto.ApproveTaskRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.approvalService.ApproveAndAssign(c.UserContext(), actor, taskID, req.ToInput())
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) RequestRevisions(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	var req dto.RequestRevisionsRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.approvalService.RequestRevisions(c.UserContext(), actor, taskID, req.Comment)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) Reject(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.approvalService.Reject(c.UserContext(), actor, taskID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) Resubmit(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	var req dto.ResubmitTaskRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.approvalService.Resubmit(c.UserContext(), actor, taskID, req.Title, req.Description)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

// ChangeStatus คือ endpoint ที่ board ใช้ตอนลาก task ข้าม column
func (h *TaskHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	var req dto.ChangeStatusRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	status, err := workflow.ParseStatus(req.Status)
	if err != nil {
		return utils.ValidationErrorResponse(c, []utils.ValidationErrorDetail{{Field: "status", Message: err.Error()}})
	}

	task, err := h.approvalService.ChangeStatus(c.UserContext(), actor, taskID, status)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) UpdateProgress(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateProgressRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.approvalService.UpdateProgress(c.UserContext(), actor, taskID, req.Progress)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) AddComment(c *fiber.Ctx) error {
	actor, taskID, err := actorAndTaskID(c)
	if err != nil {
		return err
	}

	var req dto.AddCommentRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.approvalService.AddComment(c.UserContext(), actor, taskID, req.Content)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}
	return utils.CreatedResponse(c, dto.TaskToTaskResponse(task))
}

// ==================== helpers ====================

func currentActor(c *fiber.Ctx) (workflow.Actor, error) {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return workflow.Actor{}, err
	}
	return user.Actor(), nil
}

// actorAndTaskID and parseAndValidate return errors that ErrorHandler renders.
func actorAndTaskID(c *fiber.Ctx) (workflow.Actor, uuid.UUID, error) {
	actor, err := currentActor(c)
	if err != nil {
		return workflow.Actor{}, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return workflow.Actor{}, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid task ID")
	}
	return actor, taskID, nil
}

func parseAndValidate(c *fiber.Ctx, req any) error {
	ctx := c.UserContext()
	if err := c.BodyParser(req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		errors := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errors)
		return &utils.ValidationFailure{Details: errors}
	}
	return nil
}
