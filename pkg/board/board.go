// Package board is the client side of drag-and-drop status changes. It checks
// every move against the same workflow table the server uses, applies it
// optimistically, and rolls it back when the server disagrees.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/domain/workflow"
)

var (
	ErrUnknownCard  = errors.New("card is not on the board")
	ErrMoveInFlight = errors.New("card is already being moved")
)

// Card is the board's view of a task.
type Card struct {
	ID                 uuid.UUID       `json:"id"`
	Title              string          `json:"title"`
	Status             workflow.Status `json:"status"`
	Priority           string          `json:"priority"`
	AssignedUserID     *uuid.UUID      `json:"assignedUserId"`
	ProgressPercentage int             `json:"progressPercentage"`
	Deadline           *time.Time      `json:"deadline"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// StatusClient performs the authoritative status change.
type StatusClient interface {
	ChangeStatus(ctx context.Context, taskID uuid.UUID, to workflow.Status) (*Card, error)
}

// RejectedMove is returned when the transition table forbids a move. No
// request was sent.
type RejectedMove struct {
	TaskID uuid.UUID
	From   workflow.Status
	To     workflow.Status
}

func (e *RejectedMove) Error() string {
	return "cannot move task: " + e.Reason()
}

// Reason is the message shown to the user.
func (e *RejectedMove) Reason() string {
	if e.From == e.To {
		return fmt.Sprintf("task is already in %s", e.From.Label())
	}
	if workflow.IsTerminal(e.From) {
		return fmt.Sprintf("%s is final", e.From.Label())
	}
	targets := workflow.AllowedTargets(e.From)
	labels := make([]string, 0, len(targets))
	for _, t := range targets {
		labels = append(labels, t.Label())
	}
	return fmt.Sprintf("%s cannot move to %s (allowed: %s)", e.From.Label(), e.To.Label(), strings.Join(labels, ", "))
}

// SyncError is returned when the server refused or could not be reached. The
// card is back where it was.
type SyncError struct {
	TaskID uuid.UUID
	From   workflow.Status
	To     workflow.Status
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("move of task %s from %s to %s was reverted: %v", e.TaskID, e.From, e.To, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Controller holds the columns of one board. It is safe for concurrent use;
// a card can only have one move in flight.
type Controller struct {
	client StatusClient

	mu       sync.Mutex
	columns  map[workflow.Status][]*Card
	inFlight map[uuid.UUID]bool
}

func NewController(client StatusClient) *Controller {
	c := &Controller{client: client, inFlight: make(map[uuid.UUID]bool)}
	c.reset()
	return c
}

func (c *Controller) reset() {
	c.columns = make(map[workflow.Status][]*Card, len(workflow.Statuses()))
	for _, s := range workflow.Statuses() {
		c.columns[s] = nil
	}
}

// Load replaces the board contents. Cards with an unknown status are skipped.
func (c *Controller) Load(cards []Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	for i := range cards {
		card := cards[i]
		if !card.Status.Valid() {
			continue
		}
		c.columns[card.Status] = append(c.columns[card.Status], &card)
	}
}

// Column returns a copy of the cards in status, in display order.
func (c *Controller) Column(status workflow.Status) []Card {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Card, 0, len(c.columns[status]))
	for _, card := range c.columns[status] {
		out = append(out, *card)
	}
	return out
}

func (c *Controller) Find(taskID uuid.UUID) (Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, col, idx := c.locate(taskID); idx >= 0 {
		return *c.columns[col][idx], true
	}
	return Card{}, false
}

// Move drags a card to target. It returns the server's version of the card
// on success, *RejectedMove when the table forbids the move and *SyncError
// when the server call failed.
func (c *Controller) Move(ctx context.Context, taskID uuid.UUID, target workflow.Status) (*Card, error) {
	c.mu.Lock()
	card, from, idx := c.locate(taskID)
	switch {
	case idx < 0:
		c.mu.Unlock()
		return nil, ErrUnknownCard
	case c.inFlight[taskID]:
		c.mu.Unlock()
		return nil, ErrMoveInFlight
	case !workflow.CanTransition(from, target):
		c.mu.Unlock()
		return nil, &RejectedMove{TaskID: taskID, From: from, To: target}
	}

	// optimistic move
	c.removeAt(from, idx)
	card.Status = target
	c.columns[target] = append(c.columns[target], card)
	c.inFlight[taskID] = true
	c.mu.Unlock()

	updated, err := c.client.ChangeStatus(ctx, taskID, target)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, taskID)

	_, now, pos := c.locate(taskID)
	if pos >= 0 {
		c.removeAt(now, pos)
	}

	if err != nil {
		card.Status = from
		c.insertAt(from, idx, card)
		return nil, &SyncError{TaskID: taskID, From: from, To: target, Err: err}
	}

	if updated == nil || !updated.Status.Valid() {
		c.columns[target] = append(c.columns[target], card)
		result := *card
		return &result, nil
	}
	server := *updated
	c.columns[server.Status] = append(c.columns[server.Status], &server)
	result := server
	return &result, nil
}

// locate returns the card, its column and its index, or idx -1.
func (c *Controller) locate(taskID uuid.UUID) (*Card, workflow.Status, int) {
	for status, cards := range c.columns {
		for i, card := range cards {
			if card.ID == taskID {
				return card, status, i
			}
		}
	}
	return nil, "", -1
}

func (c *Controller) removeAt(status workflow.Status, idx int) {
	cards := c.columns[status]
	c.columns[status] = append(cards[:idx:idx], cards[idx+1:]...)
}

func (c *Controller) insertAt(status workflow.Status, idx int, card *Card) {
	cards := c.columns[status]
	if idx > len(cards) {
		idx = len(cards)
	}
	out := make([]*Card, 0, len(cards)+1)
	out = append(out, cards[:idx]...)
	out = append(out, card)
	out = append(out, cards[idx:]...)
	c.columns[status] = out
}
