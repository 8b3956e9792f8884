package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"taskflow/pkg/utils"
)

// devtoken mints a bearer token signed with JWT_SECRET, for local testing
// without the session service.
func main() {
	_ = godotenv.Load()

	id := flag.String("id", "", "user id (uuid)")
	username := flag.String("username", "", "username")
	email := flag.String("email", "", "email")
	role := flag.String("role", "user", "role: user or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	userID, err := uuid.Parse(*id)
	if err != nil {
		log.Fatalf("Invalid -id: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := utils.GenerateToken(utils.UserContext{
		ID:       userID,
		Username: *username,
		Email:    *email,
		Role:     *role,
	}, secret, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
