package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	apiURL    string
	socketURL string
	authToken string
)

func main() {
	// A .env next to the binary is optional; real env always wins.
	_ = godotenv.Load()

	setupLogging(os.Getenv("SKILLSWAP_LOG_LEVEL"))

	root := &cobra.Command{
		Use:           "skillswap",
		Short:         "Command-line client for the SkillSwap marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url",
		envOr("SKILLSWAP_API_URL", "http://localhost:5000/api"), "REST API base URL")
	root.PersistentFlags().StringVar(&socketURL, "socket-url",
		envOr("SKILLSWAP_SOCKET_URL", "ws://localhost:5000/socket"), "messaging server websocket URL")
	root.PersistentFlags().StringVar(&authToken, "token",
		os.Getenv("SKILLSWAP_TOKEN"), "bearer token (from `skillswap login`)")

	root.AddCommand(newLoginCmd())
	root.AddCommand(newMatchesCmd())
	root.AddCommand(newChatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(levelName string) {
	var level slog.Level
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
