// Package cmd provides the CLI commands for gitjrnl.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
	"github.com/gitjrnl/gitjrnl/internal/config"
	"github.com/gitjrnl/gitjrnl/internal/crawler"
	"github.com/gitjrnl/gitjrnl/internal/github"
	"github.com/gitjrnl/gitjrnl/internal/index"
	"github.com/gitjrnl/gitjrnl/internal/journal"
	"github.com/gitjrnl/gitjrnl/internal/version"
)

// verboseFlag is the shared verbose flag for all commands.
var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "Enable verbose logging",
}

// configFlag selects an alternate config file.
var configFlag = &cli.StringFlag{
	Name:    "config",
	Usage:   "Path to the config file",
	Sources: cli.EnvVars("GITJRNL_CONFIG"),
}

// LogFormat represents the log output format.
type LogFormat string

const (
	// LogFormatText is the human-readable text format (default).
	LogFormatText LogFormat = "text"
	// LogFormatJSON is the JSON-formatted structured logs.
	LogFormatJSON LogFormat = "json"
)

// getLogFormat returns the configured log format from GITJRNL_LOG_FORMAT.
func getLogFormat() LogFormat {
	val := strings.ToLower(os.Getenv("GITJRNL_LOG_FORMAT"))
	switch val {
	case "json":
		return LogFormatJSON
	case "text", "":
		return LogFormatText
	default:
		return LogFormatText
	}
}

// setupLogging configures the global logger from the verbose flag and
// GITJRNL_LOG_FORMAT.
func setupLogging(cmd *cli.Command) {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch getLogFormat() {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case LogFormatText:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	envVal := strings.ToLower(os.Getenv("GITJRNL_LOG_FORMAT"))
	if envVal != "" && envVal != "text" && envVal != "json" {
		slog.Warn("Invalid GITJRNL_LOG_FORMAT value, using text format", "value", envVal)
	}
}

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "gitjrnl",
		Usage:   "Journal and markdown notes stored in a GitHub repository",
		Version: version.String(),
		Flags: []cli.Flag{
			configFlag,
			verboseFlag,
		},
		Commands: []*cli.Command{
			journalCommand(),
			appendCommand(),
			getCommand(),
			saveCommand(),
			lsCommand(),
			searchCommand(),
			reindexCommand(),
			queryCommand(),
			configCommand(),
		},
	}
}

// journalCommand shows today's journal file, synthesizing the default
// heading when it does not exist yet.
func journalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Show today's journal (02:00 counts as the previous day)",
		Flags: []cli.Flag{configFlag, verboseFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings, client, err := setupClient(cmd)
			if err != nil {
				return err
			}

			now := time.Now()
			path := journal.Resolve(settings.PathTemplate, now)

			doc, err := client.GetFile(ctx, path)
			if err != nil {
				return err
			}

			content := doc.Content
			if !doc.Exists {
				content = journal.DefaultContent(now)
			}

			displayDocument(path, content)
			return nil
		},
	}
}

// appendCommand appends an entry to today's journal on the latest version
// token, creating the file when needed.
func appendCommand() *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "Append an entry to today's journal",
		ArgsUsage: "<text>",
		Flags:     []cli.Flag{configFlag, verboseFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			entry := strings.Join(cmd.Args().Slice(), " ")
			if entry == "" {
				return apperrors.ErrEmptyContent
			}

			settings, client, err := setupClient(cmd)
			if err != nil {
				return err
			}

			now := time.Now()
			path := journal.Resolve(settings.PathTemplate, now)

			content, err := journal.Append(ctx, client, path, entry, now)
			if err != nil {
				if errors.Is(err, apperrors.ErrConflict) {
					displayAppendConflict(path)
				}
				return err
			}

			slog.Info("journal updated", "path", path)
			displayDocument(path, content)
			return nil
		},
	}
}

// getCommand prints a document from the repository.
func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch and print a file from the repository",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{configFlag, verboseFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return errors.New("path required")
			}
			path := cmd.Args().Get(0)

			_, client, err := setupClient(cmd)
			if err != nil {
				return err
			}

			doc, err := client.GetFile(ctx, path)
			if err != nil {
				return err
			}
			if !doc.Exists {
				return fmt.Errorf("%s: %w", path, apperrors.ErrNotFound)
			}

			displayDocument(path, doc.Content)
			return nil
		},
	}
}

// saveCommand writes stdin to a repository file with optimistic
// concurrency: it reads the current version token first, then writes on
// it. On conflict the freshly fetched remote content is shown; --keep-mine
// retries the write on the new token, overwriting the other edit.
func saveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save stdin to a file in the repository",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "keep-mine",
				Usage: "On conflict, overwrite the remote edit with this content",
			},
			configFlag,
			verboseFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return errors.New("path required")
			}
			path := cmd.Args().Get(0)

			content, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			if len(content) == 0 {
				return apperrors.ErrEmptyContent
			}

			_, client, err := setupClient(cmd)
			if err != nil {
				return err
			}

			session, err := journal.Open(ctx, client, path, "")
			if err != nil {
				return err
			}
			session.SetContent(string(content))

			err = session.Save(ctx)
			if err == nil {
				slog.Info("file saved", "path", path)
				return nil
			}
			if !errors.Is(err, apperrors.ErrConflict) {
				return err
			}

			if !cmd.Bool("keep-mine") {
				remote, _ := session.RemoteContent()
				displaySaveConflict(path, remote)
				return err
			}

			// Last-write-wins: retry on the freshly fetched token.
			session.KeepMine()
			if err := session.Save(ctx); err != nil {
				return err
			}
			slog.Info("file saved, remote edit overwritten", "path", path)
			return nil
		},
	}
}

// lsCommand lists a repository directory.
func lsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List a repository directory (default: root)",
		ArgsUsage: "[path]",
		Flags:     []cli.Flag{configFlag, verboseFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().Get(0)

			_, client, err := setupClient(cmd)
			if err != nil {
				return err
			}

			entries, err := client.List(ctx, path)
			if err != nil {
				return err
			}

			displayEntries(entries)
			return nil
		},
	}
}

// searchCommand runs a remote content search. Results come from the hosted
// search index and may lag behind the repository; use reindex + query for
// exhaustive local search.
func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search markdown files in the repository (remote search)",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{configFlag, verboseFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")

			_, client, err := setupClient(cmd)
			if err != nil {
				return err
			}

			entries, err := client.SearchCode(ctx, query)
			if err != nil {
				return err
			}

			displayEntries(entries)
			return nil
		},
	}
}

// reindexCommand rebuilds the local search index from scratch by crawling
// the whole repository tree.
func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild the local search index from the repository",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"j"},
				Usage:   "Maximum concurrent fetches during the crawl",
				Sources: cli.EnvVars("GITJRNL_CONCURRENCY"),
			},
			configFlag,
			verboseFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings, client, err := setupClient(cmd)
			if err != nil {
				return err
			}

			sink, err := openIndex(settings)
			if err != nil {
				return err
			}
			defer func() { _ = sink.Close() }()

			opts := []crawler.Option{crawler.WithLogger(slog.Default())}
			if n := cmd.Int("concurrency"); n > 0 {
				opts = append(opts, crawler.WithConcurrency(n))
			}

			cr := crawler.New(client, sink, settings.Repository, opts...)

			result, err := cr.Rebuild(ctx)
			if err != nil {
				return fmt.Errorf("rebuild index: %w", err)
			}

			displayRebuildResult(result)
			return nil
		},
	}
}

// queryCommand searches the local index built by reindex.
func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Search the local index (run reindex first)",
		ArgsUsage: "<terms>",
		Flags:     []cli.Flag{configFlag, verboseFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			terms := strings.Join(cmd.Args().Slice(), " ")
			if terms == "" {
				return errors.New("query terms required")
			}

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return err
			}

			sink, err := openIndex(settings)
			if err != nil {
				return err
			}
			defer func() { _ = sink.Close() }()

			results, err := sink.Query(ctx, settings.Repository, terms)
			if err != nil {
				return err
			}

			displayQueryResults(results)
			return nil
		},
	}
}

// configCommand shows or updates the stored settings.
func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show current settings",
				Flags: []cli.Flag{configFlag, verboseFlag},
				Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
					setupLogging(cmd)
					return ctx, nil
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					settings, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					displaySettings(settings)
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Update settings and save them to the config file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Usage: "API token"},
					&cli.StringFlag{Name: "repository", Usage: `Repository as "owner/name"`},
					&cli.StringFlag{Name: "template", Usage: "Journal path template (YYYY/MM/DD placeholders)"},
					&cli.StringFlag{Name: "index-path", Usage: "Local index database path"},
					configFlag,
					verboseFlag,
				},
				Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
					setupLogging(cmd)
					return ctx, nil
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path, err := configPath(cmd)
					if err != nil {
						return err
					}

					settings, err := config.Load(path)
					if err != nil {
						return err
					}

					if v := cmd.String("token"); v != "" {
						settings.Token = v
					}
					if v := cmd.String("repository"); v != "" {
						settings.Repository = v
					}
					if v := cmd.String("template"); v != "" {
						settings.PathTemplate = v
					}
					if v := cmd.String("index-path"); v != "" {
						settings.IndexPath = v
					}

					if err := settings.Validate(); err != nil {
						return err
					}

					if err := config.Save(path, settings); err != nil {
						return err
					}

					slog.Info("settings saved", "path", path)
					return nil
				},
			},
		},
	}
}

// configPath resolves the config file location from the flag or default.
func configPath(cmd *cli.Command) (string, error) {
	if path := cmd.String("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// loadSettings loads settings from the config file and environment.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// setupClient loads settings, validates them and creates the API client.
func setupClient(cmd *cli.Command) (*config.Settings, *github.Client, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	client, err := github.NewClient(settings, github.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, err
	}

	return settings, client, nil
}

// openIndex opens the local index database at the configured or default path.
func openIndex(settings *config.Settings) (*index.SQLiteSink, error) {
	path := settings.IndexPath
	if path == "" {
		var err error
		path, err = config.DefaultIndexPath()
		if err != nil {
			return nil, err
		}
	}
	return index.Open(path)
}
