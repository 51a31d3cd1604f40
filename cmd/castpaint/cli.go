package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/castpaint/internal/config"
	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/ops"
	"github.com/hpungsan/castpaint/internal/web"
)

// stdout is where command output goes; tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "castpaint",
		Usage:   "Color the commands in terminal session recordings",
		Version: Version,
		Commands: []*cli.Command{
			annotateCmd(db, cfg),
			tokensCmd(cfg),
			lexiconCmd(cfg),
			runsCmd(db),
			runCmd(db),
			reportCmd(db),
			purgeCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Return errors from Run instead of exiting, so tests can inspect them
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func lexiconFlag() cli.Flag {
	return &cli.StringFlag{Name: "lexicon", Aliases: []string{"l"}, Usage: "Lexicon YAML file (default: configured or built-in)"}
}

func sourceFieldFlag() cli.Flag {
	return &cli.StringFlag{Name: "source-field", Usage: "Event field to read (default: stdout)"}
}

// annotateCmd creates the annotate command.
func annotateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "annotate",
		Usage:     "Color command tokens in one or more recordings",
		ArgsUsage: "<file.json>...",
		Flags: []cli.Flag{
			lexiconFlag(),
			&cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Usage: "Output file name prefix (default: fancy-)"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Write annotated files here instead of next to the input"},
			sourceFieldFlag(),
			&cli.StringFlag{Name: "output-field", Usage: "Event field to write (default: commands)"},
			&cli.BoolFlag{Name: "rewrite-source", Usage: "Also replace the source field with the annotated events"},
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Report what would be colored without writing anything"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one recording path is required"))
			}

			output, err := ops.Annotate(c.Context, db, cfg, ops.AnnotateInput{
				Paths:         c.Args().Slice(),
				LexiconPath:   c.String("lexicon"),
				Prefix:        c.String("prefix"),
				OutputDir:     c.String("output-dir"),
				SourceField:   c.String("source-field"),
				OutputField:   c.String("output-field"),
				RewriteSource: c.Bool("rewrite-source"),
				DryRun:        c.Bool("dry-run"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// tokensCmd creates the tokens command.
func tokensCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "List the words recovered from a recording's keystrokes",
		ArgsUsage: "<file.json>",
		Flags: []cli.Flag{
			lexiconFlag(),
			sourceFieldFlag(),
			&cli.BoolFlag{Name: "matched", Aliases: []string{"m"}, Usage: "Only list tokens found in the lexicon"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one recording path is required"))
			}

			output, err := ops.Tokens(cfg, ops.TokensInput{
				Path:        c.Args().First(),
				LexiconPath: c.String("lexicon"),
				SourceField: c.String("source-field"),
				MatchedOnly: c.Bool("matched"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// lexiconCmd creates the lexicon command.
func lexiconCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "lexicon",
		Usage: "Validate a lexicon and print its tokens with their escape sequences",
		Flags: []cli.Flag{lexiconFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Lexicon(cfg, ops.LexiconInput{Path: c.String("lexicon")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// runsCmd creates the runs command.
func runsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recorded annotation runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Max items to return"},
			&cli.IntFlag{Name: "offset", Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// runCmd creates the run command.
func runCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Show one annotation run",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-matches", Usage: "Omit the matched token list"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{ID: c.Args().First()}
			if c.Bool("no-matches") {
				include := false
				input.IncludeMatches = &include
			}

			output, err := ops.Fetch(db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command. The report is printed as-is unless
// --json asks for the wrapped form.
func reportCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Print a Markdown report of one annotation run",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "html", Usage: "Render the report to HTML"},
			&cli.BoolFlag{Name: "json", Usage: "Print {id, format, content} as JSON"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Report(db, ops.ReportInput{
				ID:   c.Args().First(),
				HTML: c.Bool("html"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(output)
			}
			_, err = io.WriteString(stdout, output.Content)
			return err
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete run history (annotated files are kept)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge runs recorded more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := ops.ParseDays(olderThan)
				if err != nil {
					return outputError(err)
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Browse run history in a local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8484, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", port)))
			}
			srv, err := web.NewServer(db, cfg, Version, c.String("bind"), port)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := web.Run(srv); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err as "[CODE] message" with exit status 1.
func outputError(err error) error {
	if pErr := errors.As(err); pErr != nil {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
