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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/termnorm/storage"
	"github.com/poiesic/termnorm/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "matchdb",
		Usage: "Export and rebuild the match database snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Snapshot output path",
				Value:   storage.ExportFileName,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "export",
				Usage:  "Write a snapshot of the live target entries",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "if-stale",
						Usage: "Skip the export when the snapshot is already current",
					},
				},
			},
			{
				Name:   "rebuild",
				Usage:  "Reconstruct the snapshot by replaying the trace stream",
				Action: rebuildCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
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

func openStore(c *cli.Context) (storage.MatchStore, *badger.Backend, error) {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := badger.NewMatchStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to open match store: %w", err)
	}
	return store, backend, nil
}

func exportCommand(c *cli.Context) error {
	store, backend, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	ctx := context.Background()
	out := c.String("out")

	if c.Bool("if-stale") {
		lastUpdate, err := lastStoreUpdate(ctx, store)
		if err != nil {
			return err
		}
		if !storage.SnapshotStale(out, lastUpdate) {
			fmt.Fprintf(os.Stderr, "Snapshot %s is current, nothing to do\n", out)
			return nil
		}
	}

	snap, err := storage.BuildSnapshot(ctx, store)
	if err != nil {
		return err
	}
	if err := storage.WriteSnapshot(snap, out, false); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exported %d targets to %s\n", len(snap.Targets), out)
	return nil
}

func rebuildCommand(c *cli.Context) error {
	store, backend, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	ctx := context.Background()
	snap, err := storage.BuildSnapshotFromTraces(ctx, store)
	if err != nil {
		return err
	}

	out := c.String("out")
	if err := storage.WriteSnapshot(snap, out, true); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Rebuilt %d targets from traces to %s\n", len(snap.Targets), out)
	return nil
}

// lastStoreUpdate finds the most recent target update for the staleness rule.
func lastStoreUpdate(ctx context.Context, store storage.MatchStore) (time.Time, error) {
	entries, err := store.ListTargets(ctx)
	if err != nil {
		return time.Time{}, err
	}

	var last time.Time
	for _, entry := range entries {
		if entry.UpdatedAt.After(last) {
			last = entry.UpdatedAt
		}
	}
	return last, nil
}
