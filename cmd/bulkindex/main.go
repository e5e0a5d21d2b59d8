// Copyright 2026 Poiesic Systems
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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/bulkindex"
	"github.com/poiesic/bulkindex/core"
	"github.com/poiesic/bulkindex/enrich"
	"github.com/poiesic/bulkindex/ingest"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "bulkindex",
		Usage: "Chunked parallel bulk CSV loader for indexed record stores",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "create-index",
				Usage:  "Create an empty index with a fixed field set",
				Action: createIndexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Index name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "fields",
						Aliases:  []string{"f"},
						Usage:    "Comma-separated field names",
						Required: true,
					},
				},
			},
			{
				Name:   "load",
				Usage:  "Bulk load CSV records into an existing index",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"i"},
						Usage:   "Input file (reads stdin when omitted)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size in bytes",
						Value: ingest.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "max-in-flight",
						Usage: "Maximum number of chunks in flight",
						Value: ingest.DefaultMaxInFlight,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size (defaults to GOMAXPROCS)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (enables enrichment)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func createIndexCommand(c *cli.Context) error {
	loader, err := bulkindex.OpenLoader(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer loader.Close()

	name := c.String("name")
	fields := strings.Split(c.String("fields"), ",")
	if err := loader.CreateIndex(name, fields); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created index %q with fields %s\n", name, strings.Join(fields, ", "))
	return nil
}

func loadCommand(c *cli.Context) error {
	ctx := context.Background()

	var opts []bulkindex.LoaderOption
	if host := c.String("embedding-host"); host != "" {
		config := enrich.NewConfig(
			enrich.WithEmbeddingHost(host),
			enrich.WithEmbeddingModel(c.String("embedding-model")),
		)
		if err := config.Validate(); err != nil {
			return fmt.Errorf("invalid enrichment configuration: %w", err)
		}
		opts = append(opts, bulkindex.WithEnrichment(config))
	}

	loader, err := bulkindex.OpenLoader(c.String("db"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer loader.Close()

	var input io.Reader = os.Stdin
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		input = f
	}

	pipelineOpts := []ingest.Option{
		ingest.WithChunkSize(c.Int("chunk-size")),
		ingest.WithMaxInFlight(c.Int("max-in-flight")),
	}
	if n := c.Int("pool-size"); n > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(n))
	}

	pipeline, err := loader.NewPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	result, err := pipeline.Ingest(ctx, input)
	if err != nil {
		var oe *core.OffsetError
		if errors.As(err, &oe) {
			return fmt.Errorf("load failed at byte offset %d: %w", oe.Offset, oe.Err)
		}
		return fmt.Errorf("load failed: %w", err)
	}

	fmt.Printf("indexed %d records, sequence %d\n", result.IndexedCount, result.SequenceID)
	return nil
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
