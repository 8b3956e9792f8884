package workflow

import (
	"github.com/google/uuid"

	"taskflow/domain/apperrors"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Actor is the caller identity supplied by the session collaborator.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SystemActor is used by the overdue sweep. It never comes from a request.
var SystemActor = Actor{ID: uuid.Nil, Role: RoleSystem}

type Action string

const (
	ActionView             Action = "view task"
	ActionCreateAssigned   Action = "create an assigned task"
	ActionApprove          Action = "approve task"
	ActionRequestRevisions Action = "request revisions"
	ActionReject           Action = "reject task"
	ActionResubmit         Action = "resubmit task"
	ActionProgress         Action = "progress task"
	ActionReturnForChanges Action = "return task for changes"
	ActionMarkOverdue      Action = "mark task overdue"
	ActionComment          Action = "comment on task"
	ActionDelete           Action = "delete task"
	ActionSweepOverdue     Action = "sweep overdue tasks"
	ActionListAll          Action = "list all tasks"
)

// Ownership is the part of a task authorization cares about.
type Ownership struct {
	AssignerID     uuid.UUID
	AssignedUserID *uuid.UUID
}

// Authorize decides whether actor may perform action on a task with the given
// ownership. It knows nothing about statuses; legality of the status change is
// CanTransition's job.
func Authorize(actor Actor, action Action, task Ownership) error {
	switch action {
	case ActionCreateAssigned, ActionApprove, ActionRequestRevisions, ActionReject,
		ActionReturnForChanges, ActionDelete, ActionSweepOverdue, ActionListAll:
		if !actor.IsAdmin() {
			return apperrors.Forbidden(string(action), "administrator role required")
		}
		return nil

	case ActionResubmit:
		if actor.ID != task.AssignerID {
			return apperrors.Forbidden(string(action), "only the original submitter can resubmit")
		}
		return nil

	case ActionProgress:
		if task.AssignedUserID == nil || actor.ID != *task.AssignedUserID {
			return apperrors.Forbidden(string(action), "only the assignee can progress this task")
		}
		return nil

	case ActionMarkOverdue:
		if actor.Role != RoleSystem {
			return apperrors.Forbidden(string(action), "tasks become overdue through the overdue sweep only")
		}
		return nil

	case ActionView, ActionComment:
		if actor.IsAdmin() || actor.ID == task.AssignerID ||
			(task.AssignedUserID != nil && actor.ID == *task.AssignedUserID) {
			return nil
		}
		return apperrors.Forbidden(string(action), "task belongs to other users")
	}

	return apperrors.Forbidden(string(action), "unknown action")
}
