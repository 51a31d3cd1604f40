package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/hpungsan/castpaint/internal/config"
	"github.com/hpungsan/castpaint/internal/db"
	"github.com/hpungsan/castpaint/internal/log"
	"github.com/hpungsan/castpaint/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"annotate": true, "tokens": true, "lexicon": true,
	"runs": true, "run": true, "report": true, "purge": true,
	"serve": true, "help": true,
}

// isCLIMode reports whether os.Args names a subcommand or help/version flag.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return cliCommands[arg] || isHelpOrVersion()
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	switch os.Args[1] {
	case "--help", "-h", "--version", "-v", "help":
		return true
	}
	return false
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printBanner() {
	fmt.Println(`
                  _             _       _
   ___ __ _ ___| |_ _ __   __ _(_)_ __ | |_
  / __/ _' / __| __| '_ \ / _' | | '_ \| __|
 | (_| (_| \__ \ |_| |_) | (_| | | | | | |_
  \___\__,_|___/\__| .__/ \__,_|_|_| |_|\__|
                   |_|

  Color the commands in terminal recordings

  Usage: castpaint <command> [options]
         castpaint --help

  MCP server mode requires piped input.`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → banner
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// --help/--version need no config or database
	if isHelpOrVersion() {
		if err := newCLIApp(nil, nil).Run(os.Args); err != nil {
			fatalf("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatalf("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".castpaint")

	cwd, err := os.Getwd()
	if err != nil {
		fatalf("could not determine working directory: %v", err)
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}

	log.Setup(filepath.Join(baseDir, "logs", "castpaint.log"), cfg.LogLevel)

	database, err := db.Init(baseDir)
	if err != nil {
		fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	if isCLIMode() {
		if err := newCLIApp(database, cfg).Run(os.Args); err != nil {
			database.Close()
			fatalf("%v", err)
		}
		return
	}

	// Unknown argument on a terminal → error rather than a silent MCP server
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'castpaint --help' for usage.\n")
		database.Close()
		os.Exit(1)
	}

	slog.Info("starting MCP server", "version", Version)
	defer log.RecoverPanic("mcp", func() {
		database.Close()
		os.Exit(2)
	})
	if err := mcp.Run(database, cfg, Version); err != nil {
		database.Close()
		fatalf("%v", err)
	}
}
