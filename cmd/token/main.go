// Command token prints a signed bearer token for local development.
//
//	go run ./cmd/token -user 7 -role local_accreditor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"accreditdocs/internal/auth"
	"accreditdocs/internal/config"
	"accreditdocs/internal/model"
)

func main() {
	cfg := config.Load()

	userID := flag.Int64("user", 0, "user id to put in the token subject")
	role := flag.String("role", string(model.RoleLocalTaskForce), "admin, local_task_force or local_accreditor")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	flag.Parse()

	if err := run(cfg.Auth, *userID, *role, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
}

func run(cfg config.AuthConfig, userID int64, role string, ttl time.Duration) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if userID <= 0 {
		return fmt.Errorf("-user must be a positive id")
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return err
	}

	tok, err := auth.NewTokens(cfg.JWTSecret, cfg.Issuer, ttl).Issue(model.Actor{ID: userID, Role: r})
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
