package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/usage"
	"github.com/jackc/pgx/v5/pgxpool"
)

func runAdmin(args []string) int {
	if len(args) == 0 {
		printAdminUsage()
		return 2
	}

	switch args[0] {
	case "reset-password":
		return runResetPassword(args[1:])
	case "set-plan":
		return runSetPlan(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown admin command: %s\n", args[0])
		printAdminUsage()
		return 2
	}
}

func printAdminUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  formforge admin reset-password --email user@example.com [--password <new>] [--db-dsn <dsn>]")
	fmt.Fprintln(os.Stderr, "  formforge admin set-plan --email user@example.com --plan free|hobby|pro [--status active] [--db-dsn <dsn>]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Notes:")
	fmt.Fprintln(os.Stderr, "  - If --password is omitted, a random password is generated and printed.")
	fmt.Fprintln(os.Stderr, "  - Paid plans only count as paid while --status is active.")
	fmt.Fprintln(os.Stderr, "  - --db-dsn defaults to FF_DB_DSN.")
}

// connect resolves the DSN flag and opens a short-lived pool.
func connect(ctx context.Context, dbDSN string) (*pgxpool.Pool, int) {
	if dbDSN == "" {
		dbDSN = strings.TrimSpace(os.Getenv("FF_DB_DSN"))
	}
	if dbDSN == "" {
		fmt.Fprintln(os.Stderr, "--db-dsn is required (or set FF_DB_DSN)")
		return nil, 2
	}

	pool, err := pgxpool.New(ctx, dbDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return nil, 1
	}
	return pool, 0
}

func runResetPassword(args []string) int {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var email string
	var password string
	var dbDSN string

	fs.StringVar(&email, "email", "", "User email")
	fs.StringVar(&password, "password", "", "New password (if empty, generates one)")
	fs.StringVar(&dbDSN, "db-dsn", "", "Postgres DSN (defaults to FF_DB_DSN)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		return 2
	}

	generated := false
	if password == "" {
		pw, err := generatePassword(24)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate password: %v\n", err)
			return 1
		}
		password = pw
		generated = true
	}

	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "Password must be at least 8 characters")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, code := connect(ctx, dbDSN)
	if pool == nil {
		return code
	}
	defer pool.Close()

	if err := auth.NewService(pool).SetPassword(ctx, email, password); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			fmt.Fprintf(os.Stderr, "No user found with email %q\n", email)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to update password: %v\n", err)
		return 1
	}

	fmt.Fprintln(os.Stdout, "Password updated.")
	if generated {
		fmt.Fprintln(os.Stdout, password)
	}

	return 0
}

func runSetPlan(args []string) int {
	fs := flag.NewFlagSet("set-plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var email string
	var planName string
	var status string
	var dbDSN string

	fs.StringVar(&email, "email", "", "User email")
	fs.StringVar(&planName, "plan", "", "Plan: free, hobby or pro")
	fs.StringVar(&status, "status", "", "Subscription status (e.g. active, canceled)")
	fs.StringVar(&dbDSN, "db-dsn", "", "Postgres DSN (defaults to FF_DB_DSN)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		return 2
	}

	plan, ok := usage.ParsePlan(planName)
	if !ok {
		fmt.Fprintf(os.Stderr, "--plan must be one of: free, hobby, pro (got: %q)\n", planName)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, code := connect(ctx, dbDSN)
	if pool == nil {
		return code
	}
	defer pool.Close()

	if err := usage.NewGate(pool).SetPlan(ctx, email, plan, strings.TrimSpace(status)); err != nil {
		if errors.Is(err, usage.ErrUserNotFound) {
			fmt.Fprintf(os.Stderr, "No user found with email %q\n", email)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to set plan: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stdout, "Plan set to %s.\n", plan)
	return 0
}

func generatePassword(bytesLen int) (string, error) {
	if bytesLen < 8 {
		bytesLen = 8
	}

	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// URL-safe, printable, without padding.
	return base64.RawURLEncoding.EncodeToString(b), nil
}
