// cmd/tools/draft-inspector/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"mealsub-admin/internal/common/config"
	"mealsub-admin/internal/common/database"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/draft"
)

func main() {
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)

	sessionShow := showCmd.String("session", "", "Session ID of the draft to print")
	sessionClear := clearCmd.String("session", "", "Session ID of the draft to delete")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: config load failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		fmt.Printf("Error: redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer rdb.Close()

	switch os.Args[1] {
	case "show":
		showCmd.Parse(os.Args[2:])
		if *sessionShow == "" {
			fmt.Println("Error: -session is required for show.")
			showCmd.Usage()
			os.Exit(1)
		}
		env := load(ctx, rdb, cfg, *sessionShow)
		if env == nil {
			fmt.Printf("No draft found for session %s\n", *sessionShow)
			return
		}
		out, _ := json.MarshalIndent(env, "", "  ")
		fmt.Println(string(out))

	case "clear":
		clearCmd.Parse(os.Args[2:])
		if *sessionClear == "" {
			fmt.Println("Error: -session is required for clear.")
			clearCmd.Usage()
			os.Exit(1)
		}
		repo := repository(rdb, cfg, *sessionClear)
		if err := repo.Clear(ctx); err != nil {
			fmt.Printf("Error: clear failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Draft for session %s cleared.\n", *sessionClear)

	default:
		help()
		os.Exit(1)
	}
}

func repository(rdb *database.RedisClient, cfg *config.Config, sessionID string) *draft.RedisRepository {
	// warn level keeps structured output off stdout unless the repository
	// actually hits a problem worth seeing.
	repo, err := draft.NewRedisRepository(
		rdb,
		cfg.Wizard.DraftKeyPrefix+sessionID,
		cfg.Wizard.DraftTTL(),
		logger.NewStructured("warn", "console"),
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return repo
}

func load(ctx context.Context, rdb *database.RedisClient, cfg *config.Config, sessionID string) *draft.Envelope {
	env, err := repository(rdb, cfg, sessionID).Load(ctx)
	if err != nil {
		fmt.Printf("Error: load failed: %v\n", err)
		os.Exit(1)
	}
	return env
}

func help() {
	fmt.Println("Usage:")
	fmt.Println("  draft-inspector show  -session <id>   Print a persisted wizard draft")
	fmt.Println("  draft-inspector clear -session <id>   Delete a persisted wizard draft")
}
