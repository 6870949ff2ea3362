// Command smoke exercises the core attendance API from a terminal: sign in,
// pull one page of events, sign out. Credentials persist in a local file so
// repeated runs reuse the token pair and hit the refresh path once the access
// token expires.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cmlabs-hris/attendance-console-go/internal/upstream"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	baseURL := flag.String("base-url", envOr("UPSTREAM_BASE_URL", "http://localhost:8080"), "core API base URL")
	credPath := flag.String("credentials", filepath.Join(home, ".attendance-console", "credentials.json"), "credential file path")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: smoke [flags] login <email> <password> | events | logout")
		os.Exit(2)
	}

	store, err := upstream.NewFileStore(*credPath)
	if err != nil {
		log.Fatal("Failed to open credential store: ", err)
	}

	client := upstream.NewClient(*baseURL, *timeout, store, func() {
		fmt.Fprintln(os.Stderr, "session invalidated, sign in again")
	})

	ctx := context.Background()
	switch flag.Arg(0) {
	case "login":
		if flag.NArg() != 3 {
			log.Fatal("usage: smoke login <email> <password>")
		}
		if _, err := client.Login(ctx, flag.Arg(1), flag.Arg(2)); err != nil {
			log.Fatal("Login failed: ", err)
		}
		fmt.Println("Signed in, credentials saved to", *credPath)

	case "events":
		query := url.Values{}
		query.Set("offset", "0")
		query.Set("limit", "20")

		var page struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := client.Get(ctx, "/api/admin/attendance/events", query, &page); err != nil {
			log.Fatal("Failed to fetch events: ", err)
		}
		fmt.Printf("Fetched %d events\n", len(page.Data))
		for _, raw := range page.Data {
			fmt.Println(string(raw))
		}

	case "logout":
		client.Logout(ctx)
		fmt.Println("Signed out")

	default:
		log.Fatal("Unknown command: ", flag.Arg(0))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
