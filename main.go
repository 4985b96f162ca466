// ABOUTME: Entry point for the connections service and CLI
// ABOUTME: Loads config, builds the logger and ledger, then routes to a subcommand
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/harperreed/connections/cli"
	"github.com/harperreed/connections/config"
	"github.com/harperreed/connections/db"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Fetch ledger path (default: ~/.local/share/connections/connections.db)")
	envFile := flag.String("env-file", "", "Env file to load (default: .env)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("connections version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "connections",
	})

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatal("Failed to load config", "err", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("unknown LOG_LEVEL, using info", "level", cfg.LogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	command := args[0]
	commandArgs := args[1:]

	env := &cli.Env{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
	}

	switch command {
	case "serve", "list", "status", "mcp":
		database, err := db.OpenDatabase(cfg.DBPath)
		if err != nil {
			logger.Fatal("Failed to open database", "path", cfg.DBPath, "err", err)
		}
		env.DB = database
		logger.Debug("fetch ledger", "path", cfg.DBPath)

		err = run(env, command, commandArgs)
		closeDB(database)
		if err != nil {
			logger.Fatal("Error", "command", command, "err", err)
		}

	case "auth":
		if err := cli.AuthCommand(env, commandArgs); err != nil {
			logger.Fatal("Error", "command", command, "err", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(env *cli.Env, command string, args []string) error {
	switch command {
	case "serve":
		return cli.ServeCommand(env, args)
	case "list":
		return cli.ListCommand(env, args)
	case "status":
		return cli.StatusCommand(env, args)
	case "mcp":
		return cli.MCPCommand(env, version)
	}
	return fmt.Errorf("unknown command: %s", command)
}

func closeDB(database *sql.DB) {
	_ = database.Close()
}

func printUsage() {
	fmt.Printf(`connections v%s - Google Contacts over OAuth2

USAGE:
  connections [global flags] <command> [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Fetch ledger path (default: ~/.local/share/connections/connections.db)
  --env-file <path>      Env file to load (default: .env)

COMMANDS:
  serve                  Start the web server
    --port <n>             Port to listen on (default: $PORT or 3000)

  auth                   Log in through the browser and save token.json
    --no-browser           Print the consent URL instead of opening a browser

  list                   Print every connection as JSON
    --output <file>        Write JSON to a file instead of stdout
    --no-login             Fail instead of starting a browser login

  status                 Show credential, sync state, and recent fetch runs
    --limit <n>            Number of recent runs (default: 5)

  mcp                    Start MCP server exposing list_connections

ENVIRONMENT:
  PORT, GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REDIRECT_URI,
  TOKEN_PATH, CREDENTIALS_PATH, CONNECTIONS_DB_PATH, LOG_LEVEL

WEB ROUTES:
  GET /                       Redirect to Google consent
  GET /auth/google/callback   Exchange code, save credential, set cookie
  GET /connections            All connections as JSON

`, version)
}
