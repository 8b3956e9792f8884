package dto

import (
	"time"

	"github.com/google/uuid"
)

type AttachmentInput struct {
	FileName string `json:"fileName" validate:"required,max=255"`
	FileURL  string `json:"fileUrl" validate:"required,max=1024"`
	FileType string `json:"fileType" validate:"omitempty,max=100"`
	FileSize int64  `json:"fileSize" validate:"min=0"`
}

type SubmitTaskRequest struct {
	Title             string            `json:"title" validate:"required,min=1,max=255"`
	Description       *string           `json:"description" validate:"omitempty,max=5000"`
	SuggestedPriority string            `json:"suggestedPriority" validate:"omitempty,oneof=low medium high urgent"`
	SuggestedDeadline *time.Time        `json:"suggestedDeadline"`
	Attachments       []AttachmentInput `json:"attachments" validate:"omitempty,max=20,dive"`
}

type CreateAssignedTaskRequest struct {
	Title         string            `json:"title" validate:"required,min=1,max=255"`
	Description   *string           `json:"description" validate:"omitempty,max=5000"`
	Priority      string            `json:"priority" validate:"required,oneof=low medium high urgent"`
	Deadline      *time.Time        `json:"deadline"`
	AssigneeID    uuid.UUID         `json:"assigneeId" validate:"required"`
	TimerDuration int               `json:"timerDuration" validate:"min=0"`
	Attachments   []AttachmentInput `json:"attachments" validate:"omitempty,max=20,dive"`
}

type ApproveTaskRequest struct {
	AssigneeID    uuid.UUID  `json:"assigneeId" validate:"required"`
	Priority      string     `json:"priority" validate:"required,oneof=low medium high urgent"`
	Deadline      *time.Time `json:"deadline"`
	TimerDuration int        `json:"timerDuration" validate:"min=0"`
}

type RequestRevisionsRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=5000"`
}

type ResubmitTaskRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// ChangeStatusRequest accepts either the status value or its column label.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type UpdateProgressRequest struct {
	Progress int `json:"progress" validate:"min=0,max=100"`
}

type AddCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

type SweepOverdueRequest struct {
	Now *time.Time `json:"now"`
}

type TaskFilterRequest struct {
	PageRequest
	Status         string `query:"status"`
	Priority       string `query:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedUserID string `query:"assignedUserId" validate:"omitempty,uuid"`
	AssignerID     string `query:"assignerId" validate:"omitempty,uuid"`
	SortBy         string `query:"sortBy"`
	SortOrder      string `query:"sortOrder"`
}

type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
}

type AttachmentResponse struct {
	ID         uuid.UUID `json:"id"`
	UploaderID uuid.UUID `json:"uploaderId"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type TaskResponse struct {
	ID                 uuid.UUID            `json:"id"`
	Title              string               `json:"title"`
	Description        *string              `json:"description"`
	Status             string               `json:"status"`
	StatusLabel        string               `json:"statusLabel"`
	Priority           string               `json:"priority"`
	Deadline           *time.Time           `json:"deadline"`
	SuggestedPriority  *string              `json:"suggestedPriority"`
	SuggestedDeadline  *time.Time           `json:"suggestedDeadline"`
	AssignerID         uuid.UUID            `json:"assignerId"`
	Assigner           *UserSummary         `json:"assigner,omitempty"`
	AssignedUserID     *uuid.UUID           `json:"assignedUserId"`
	Assignee           *UserSummary         `json:"assignee,omitempty"`
	ProgressPercentage int                  `json:"progressPercentage"`
	TimerDuration      int                  `json:"timerDuration"`
	Attachments        []AttachmentResponse `json:"attachments"`
	Comments           []CommentResponse    `json:"comments"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
	CompletedAt        *time.Time           `json:"completedAt"`
}

type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Pagination Pagination     `json:"pagination"`
}

type SweepFailureResponse struct {
	TaskID uuid.UUID `json:"taskId"`
	Reason string    `json:"reason"`
}

type SweepResultResponse struct {
	Transitioned []uuid.UUID            `json:"transitioned"`
	Notified     []uuid.UUID            `json:"notified"`
	Failed       []SweepFailureResponse `json:"failed"`
}

type TransitionTableResponse struct {
	Statuses    []StatusResponse    `json:"statuses"`
	Transitions map[string][]string `json:"transitions"`
}

type StatusResponse struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Terminal bool   `json:"terminal"`
}

type UploadAttachmentResponse struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}
