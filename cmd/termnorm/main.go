// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/termnorm"
	"github.com/poiesic/termnorm/ai"
	"github.com/poiesic/termnorm/pipeline"
	"github.com/poiesic/termnorm/research"
)

func main() {
	app := &cli.App{
		Name:  "termnorm",
		Usage: "Research-backed term normalization against controlled vocabularies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "termnorm.db",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session identifier owning the vocabulary",
				Value:   "default",
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Usage:   "OpenAI-compatible chat service host URL",
				EnvVars: []string{"TERMNORM_AI_HOST"},
				Value:   "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:    "ai-model",
				Usage:   "Chat model for profiling and ranking",
				EnvVars: []string{"TERMNORM_AI_MODEL"},
				Value:   "qwen2.5:3b",
			},
			&cli.StringFlag{
				Name:    "ai-token",
				Usage:   "API token for the chat service",
				EnvVars: []string{"TERMNORM_AI_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "brave-api-key",
				Usage:   "Brave Search API key (enables the primary search engine)",
				EnvVars: []string{"BRAVE_API_KEY"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "add-terms",
				Usage:     "Add vocabulary terms to the session's matcher",
				ArgsUsage: "TERM [TERM...]",
				Action:    addTermsCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Discard the existing vocabulary first",
					},
				},
			},
			{
				Name:      "match",
				Usage:     "Run the full research pipeline for a query",
				ArgsUsage: "QUERY",
				Action:    matchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "skip-llm-ranking",
						Usage: "Return token-match candidates without LLM ranking",
					},
					&cli.IntFlag{
						Name:  "max-sites",
						Usage: "Number of pages to scrape for research",
						Value: 5,
					},
					&cli.StringFlag{
						Name:     "terms-file",
						Usage:    "File with one vocabulary term per line to seed the session",
						Required: true,
					},
				},
			},
			{
				Name:      "quick-match",
				Usage:     "Lexical-only matching, no research or LLM stages",
				ArgsUsage: "QUERY",
				Action:    quickMatchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "terms-file",
						Usage:    "File with one vocabulary term per line to seed the session",
						Required: true,
					},
				},
			},
			{
				Name:   "targets",
				Usage:  "List every matched target with its alias history",
				Action: targetsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads .env and configures the default logger before any command runs.
func setup(c *cli.Context) error {
	// Missing .env is fine; explicit environment still applies
	_ = godotenv.Load()

	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// openService builds the service from the global flags.
func openService(c *cli.Context, extra ...termnorm.ServiceOption) (*termnorm.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithModel(c.String("ai-model")),
		ai.WithToken(c.String("ai-token")),
	)

	opts := []termnorm.ServiceOption{
		termnorm.WithAIConfig(aiConfig),
	}
	if key := c.String("brave-api-key"); key != "" {
		opts = append(opts, termnorm.WithResearchOptions(research.WithBraveAPIKey(key)))
	}
	opts = append(opts, extra...)

	return termnorm.NewService(c.String("db"), opts...)
}

func addTermsCommand(c *cli.Context) error {
	terms := c.Args().Slice()
	if len(terms) == 0 {
		return fmt.Errorf("at least one term is required")
	}

	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	resp, err := svc.Pipeline().UpdateMatcher(context.Background(), c.String("session"), pipeline.UpdateMatcherRequest{
		Terms:      terms,
		ForceReset: c.Bool("reset"),
	})
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func matchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	svc, err := openService(c, termnorm.WithPipelineOptions(pipeline.WithMaxSites(c.Int("max-sites"))))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	if err := seedSession(c, svc); err != nil {
		return err
	}

	resp, err := svc.Pipeline().ResearchAndMatch(context.Background(), c.String("session"), pipeline.MatchRequest{
		Query:          query,
		SkipLLMRanking: c.Bool("skip-llm-ranking"),
	})
	if err != nil {
		// An aborted run still has partial results worth showing
		if resp != nil {
			printJSON(resp)
		}
		return err
	}
	return printJSON(resp)
}

func quickMatchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	if err := seedSession(c, svc); err != nil {
		return err
	}

	resp, err := svc.Pipeline().QuickMatch(context.Background(), c.String("session"), pipeline.QuickMatchRequest{Query: query})
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func targetsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	entries, err := svc.Store().ListTargets(context.Background())
	if err != nil {
		return err
	}
	return printJSON(entries)
}

// seedSession loads the vocabulary file into the session. Sessions live in
// process memory, so every invocation brings its own terms.
func seedSession(c *cli.Context, svc *termnorm.Service) error {
	data, err := os.ReadFile(c.String("terms-file"))
	if err != nil {
		return fmt.Errorf("failed to read terms file: %w", err)
	}

	var terms []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			terms = append(terms, line)
		}
	}

	_, err = svc.Pipeline().InitSession(context.Background(), c.String("session"), pipeline.InitSessionRequest{Terms: terms})
	return err
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
