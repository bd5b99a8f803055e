// Command prebuild writes a GitHub data snapshot before the site is built.
// It never fails because of the API: without a username or on any fetch
// error it writes the bundled fallback instead.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jeremyjr/portfolio/internal/github"
)

func main() {
	var (
		output  string
		top     int
		timeout time.Duration
	)
	flag.StringVar(&output, "out", "data/github.json", "snapshot output path")
	flag.IntVar(&top, "top", github.DefaultTopRepos, "number of repositories to keep")
	flag.DurationVar(&timeout, "timeout", 20*time.Second, "GitHub API timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	data := generate(ctx, os.Getenv("GITHUB_USERNAME"), os.Getenv("GITHUB_TOKEN"), top)
	if err := github.WriteSnapshot(output, data); err != nil {
		log.Fatalf("Error: could not write %s: %v", output, err)
	}
	log.Printf("GitHub data saved to %s (%d repos)", output, len(data.Repos))
}

func generate(ctx context.Context, username, token string, top int) github.Data {
	return generateWith(ctx, github.NewClient(token), username, top)
}

func generateWith(ctx context.Context, client *github.Client, username string, top int) github.Data {
	if username == "" {
		log.Println("Warning: GITHUB_USERNAME not set. Using fallback data.")
		return github.Fallback()
	}

	client.TopRepos = top
	log.Printf("Fetching GitHub data for @%s...", username)
	data, err := client.Fetch(ctx, username)
	if err != nil {
		log.Printf("Error: Failed to fetch GitHub data: %v", err)
		log.Println("Falling back to static sample data...")
		return github.Fallback()
	}
	return data
}
