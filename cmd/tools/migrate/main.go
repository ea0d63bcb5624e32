package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/noah-isme/paypal-orders/internal/auth"
	"github.com/noah-isme/paypal-orders/internal/db"
)

// migrate applies or rolls back the embedded schema and hashes admin passwords.
// Exit code 0 = ok, 1 = command failed, 2 = usage error.
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "up":
		err = up()
	case "down":
		err = down(os.Args[2:])
	case "hash-password":
		err = hashPassword(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down [-steps N] | hash-password [-password P]")
}

func databaseURL() (string, error) {
	url := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is not set")
	}
	return url, nil
}

func up() error {
	url, err := databaseURL()
	if err != nil {
		return err
	}
	if err := db.MigrateUp(url); err != nil {
		return err
	}
	fmt.Println("migrate: up OK")
	return nil
}

func down(args []string) error {
	fs := flag.NewFlagSet("down", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	url, err := databaseURL()
	if err != nil {
		return err
	}
	if err := db.MigrateDown(url, *steps); err != nil {
		return err
	}
	fmt.Printf("migrate: rolled back %d step(s)\n", *steps)
	return nil
}

// hashPassword prints an argon2id hash for ADMIN_PASSWORD_HASH. Without
// -password it reads one line from stdin.
func hashPassword(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	password := fs.String("password", "", "plain text password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	plain := *password
	if plain == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}
	hash, err := auth.HashPassword(plain)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
