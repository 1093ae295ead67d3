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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/idrak"
	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/config"
	"github.com/poiesic/idrak/search"
	"github.com/urfave/cli/v2"
)

// Metadata keys on cli.App.
const (
	configKey   = "config"
	providerKey = "provider"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	ownerFlag := &cli.StringFlag{
		Name:     "owner",
		Aliases:  []string{"o"},
		Usage:    "Owner whose notes are used",
		EnvVars:  []string{"IDRAK_OWNER"},
		Required: true,
	}
	kFlag := &cli.IntFlag{
		Name:  "k",
		Usage: "Maximum number of results",
		Value: search.DefaultK,
	}
	fileFlag := &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Read the transcript from a file (- for stdin)",
	}

	return &cli.App{
		Name:  "idrak",
		Usage: "Semantic retrieval and question answering over voice notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML settings file",
				Value:   config.DefaultPath,
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files (default ./.env if present)",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Note store to use (badger, mongo)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
		},
		Before:   before,
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Print the structured extraction of a transcript",
				ArgsUsage: "[transcript...]",
				Action:    extractCommand,
				Flags:     []cli.Flag{fileFlag},
			},
			{
				Name:      "save",
				Usage:     "Extract, store and embed a transcript as a new note",
				ArgsUsage: "[transcript...]",
				Action:    saveCommand,
				Flags: []cli.Flag{
					ownerFlag,
					fileFlag,
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Embed the note after saving it",
						Value: true,
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Print a note",
				ArgsUsage: "<note-id>",
				Action:    showCommand,
				Flags:     []cli.Flag{ownerFlag},
			},
			{
				Name:      "tags",
				Usage:     "List notes carrying a tag",
				ArgsUsage: "<tag>",
				Action:    tagsCommand,
				Flags:     []cli.Flag{ownerFlag},
			},
			{
				Name:      "done",
				Usage:     "Mark a task of a note as completed",
				ArgsUsage: "<note-id> <task-number>",
				Action:    doneCommand,
				Flags: []cli.Flag{
					ownerFlag,
					&cli.BoolFlag{
						Name:  "undo",
						Usage: "Mark the task as open again",
					},
				},
			},
			{
				Name:      "embed",
				Usage:     "Embed a note's current text",
				ArgsUsage: "<note-id>",
				Action:    embedCommand,
				Flags:     []cli.Flag{ownerFlag},
			},
			{
				Name:      "search",
				Usage:     "Find the notes most similar to a query",
				ArgsUsage: "<query...>",
				Action:    searchCommand,
				Flags:     []cli.Flag{ownerFlag, kFlag},
			},
			{
				Name:      "related",
				Usage:     "Find the notes most similar to a note",
				ArgsUsage: "<note-id>",
				Action:    relatedCommand,
				Flags:     []cli.Flag{ownerFlag, kFlag},
			},
			{
				Name:      "topic",
				Usage:     "Label what a set of notes has in common",
				ArgsUsage: "<note-id...>",
				Action:    topicCommand,
				Flags:     []cli.Flag{ownerFlag},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from your notes",
				ArgsUsage: "<question...>",
				Action:    askCommand,
				Flags: []cli.Flag{
					ownerFlag,
					&cli.StringFlag{
						Name:  "history",
						Usage: "JSON file holding the conversation; read before and updated after answering",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute missing or stale embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					ownerFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of notes embedded per request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N notes",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding request",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of batches embedded concurrently (0 for half the CPUs)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed every note, not only stale ones",
					},
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Scale vectors to unit length before storing",
					},
				},
			},
		},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	return loadConfig(c)
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

// loadConfig layers the settings file, the environment and the global
// flags, and stores the result in the app metadata.
func loadConfig(c *cli.Context) error {
	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if store := c.String("store"); store != "" {
		cfg.Store.Type = store
	}
	if db := c.String("db"); db != "" {
		cfg.Store.Path = db
	}

	c.App.Metadata[configKey] = cfg
	return nil
}

// openService opens the configured store. A provider placed in the app
// metadata replaces the configured one.
func openService(c *cli.Context) (*idrak.Service, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []idrak.Option{
		idrak.WithAIConfig(cfg.ProviderConfig()),
		idrak.WithPolicy(cfg.Policy()),
		idrak.WithTopicMaxTokens(cfg.AI.TopicMaxTokens),
	}
	if provider, ok := c.App.Metadata[providerKey].(ai.AIProvider); ok {
		opts = append(opts, idrak.WithProvider(provider))
	}

	switch cfg.Store.Type {
	case config.StoreMongo:
		return idrak.OpenMongo(c.Context, cfg.MongoConfig(), opts...)
	default:
		return idrak.OpenBadger(cfg.Store.Path, opts...)
	}
}
