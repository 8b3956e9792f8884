package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"taskflow/domain/workflow"
	"taskflow/pkg/board"
)

// board prints the task board and optionally moves one card, going through
// the same local check, optimistic move and rollback as the web board.
func main() {
	_ = godotenv.Load()

	api := flag.String("api", envOr("BOARD_API_URL", "http://localhost:8080"), "task API base URL")
	token := flag.String("token", os.Getenv("BOARD_TOKEN"), "bearer token")
	taskID := flag.String("task", "", "task to move")
	to := flag.String("to", "", "target status, e.g. in_progress or \"In Progress\"")
	limit := flag.Int("limit", 100, "tasks to load")
	flag.Parse()

	client := board.NewHTTPClient(board.HTTPClientConfig{
		BaseURL: *api,
		Token:   *token,
		Timeout: 10 * time.Second,
		Limiter: rate.NewLimiter(rate.Limit(5), 5),
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cards, err := client.ListTasks(ctx, 1, *limit)
	if err != nil {
		log.Fatalf("Failed to load tasks: %v", err)
	}
	b := board.NewController(client)
	b.Load(cards)

	if *taskID != "" {
		id, err := uuid.Parse(*taskID)
		if err != nil {
			log.Fatalf("Invalid -task: %v", err)
		}
		target, err := workflow.ParseStatus(*to)
		if err != nil {
			log.Fatalf("Invalid -to: %v", err)
		}

		card, err := b.Move(ctx, id, target)
		var rejected *board.RejectedMove
		var syncErr *board.SyncError
		switch {
		case errors.As(err, &rejected):
			fmt.Printf("✗ %s\n\n", rejected.Reason())
		case errors.As(err, &syncErr):
			fmt.Printf("✗ server refused, card moved back: %v\n\n", syncErr.Err)
		case err != nil:
			log.Fatalf("Move failed: %v", err)
		default:
			fmt.Printf("✓ %q is now %s\n\n", card.Title, card.Status.Label())
		}
	}

	for _, status := range workflow.Statuses() {
		column := b.Column(status)
		fmt.Printf("── %s (%d)\n", status.Label(), len(column))
		for _, card := range column {
			fmt.Printf("   %s  %-8s %3d%%  %s\n", card.ID, card.Priority, card.ProgressPercentage, card.Title)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
