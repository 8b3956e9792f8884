package dto

import (
	"taskflow/domain/models"
	"taskflow/domain/services"
	"taskflow/domain/workflow"
)

func UserToSummary(user *models.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName(),
	}
}

func TaskToTaskResponse(task *models.Task) *TaskResponse {
	if task == nil {
		return nil
	}
	resp := &TaskResponse{
		ID:                 task.ID,
		Title:              task.Title,
		Description:        task.Description,
		Status:             string(task.Status),
		StatusLabel:        task.Status.Label(),
		Priority:           string(task.Priority),
		Deadline:           task.Deadline,
		SuggestedDeadline:  task.SuggestedDeadline,
		AssignerID:         task.AssignerID,
		Assigner:           UserToSummary(task.Assigner),
		AssignedUserID:     task.AssignedUserID,
		Assignee:           UserToSummary(task.Assignee),
		ProgressPercentage: task.ProgressPercentage,
		TimerDuration:      task.TimerDuration,
		Attachments:        make([]AttachmentResponse, 0, len(task.Attachments)),
		Comments:           make([]CommentResponse, 0, len(task.Comments)),
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
		CompletedAt:        task.CompletedAt,
	}
	if task.SuggestedPriority != nil {
		p := string(*task.SuggestedPriority)
		resp.SuggestedPriority = &p
	}
	for _, a := range task.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:         a.ID,
			UploaderID: a.UploaderID,
			FileName:   a.FileName,
			FileURL:    a.FileURL,
			FileType:   a.FileType,
			FileSize:   a.FileSize,
			CreatedAt:  a.CreatedAt,
		})
	}
	for _, c := range task.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return resp
}

func TasksToTaskResponses(tasks []*models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, *TaskToTaskResponse(t))
	}
	return out
}

func toAttachmentInputs(in []AttachmentInput) []services.AttachmentInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]services.AttachmentInput, 0, len(in))
	for _, a := range in {
		out = append(out, services.AttachmentInput{
			FileName: a.FileName,
			FileURL:  a.FileURL,
			FileType: a.FileType,
			FileSize: a.FileSize,
		})
	}
	return out
}

// ToInput assumes the request already passed validation.
func (r *SubmitTaskRequest) ToInput() services.SubmitTaskInput {
	input := services.SubmitTaskInput{
		Title:             r.Title,
		Description:       r.Description,
		SuggestedDeadline: r.SuggestedDeadline,
		Attachments:       toAttachmentInputs(r.Attachments),
	}
	if r.SuggestedPriority != "" {
		p := workflow.Priority(r.SuggestedPriority)
		input.SuggestedPriority = &p
	}
	return input
}

func (r *CreateAssignedTaskRequest) ToInput() services.CreateAssignedTaskInput {
	return services.CreateAssignedTaskInput{
		Title:         r.Title,
		Description:   r.Description,
		Priority:      workflow.Priority(r.Priority),
		Deadline:      r.Deadline,
		AssigneeID:    r.AssigneeID,
		TimerDuration: r.TimerDuration,
		Attachments:   toAttachmentInputs(r.Attachments),
	}
}

func (r *ApproveTaskRequest) ToInput() services.ApproveInput {
	return services.ApproveInput{
		AssigneeID:    r.AssigneeID,
		Priority:      workflow.Priority(r.Priority),
		Deadline:      r.Deadline,
		TimerDuration: r.TimerDuration,
	}
}

func SweepResultToResponse(result *services.SweepResult) *SweepResultResponse {
	resp := &SweepResultResponse{
		Transitioned: result.Transitioned,
		Notified:     result.Notified,
		Failed:       make([]SweepFailureResponse, 0, len(result.Failed)),
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, SweepFailureResponse{TaskID: f.TaskID, Reason: f.Reason})
	}
	return resp
}

func TransitionTableToResponse() *TransitionTableResponse {
	resp := &TransitionTableResponse{
		Transitions: make(map[string][]string),
	}
	for _, s := range workflow.Statuses() {
		resp.Statuses = append(resp.Statuses, StatusResponse{
			Value:    string(s),
			Label:    s.Label(),
			Terminal: workflow.IsTerminal(s),
		})
		targets := workflow.AllowedTargets(s)
		values := make([]string, 0, len(targets))
		for _, t := range targets {
			values = append(values, string(t))
		}
		resp.Transitions[string(s)] = values
	}
	return resp
}
