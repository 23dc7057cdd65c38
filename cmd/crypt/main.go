package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "crypt",
		Usage: "Turn Solana wallet history into trading cards",
		Description: `A command-line tool for the crypt card service.

Wallet and card commands talk to a running server. The skull, soul, deal and
score commands work offline.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Wallet commands (HTTP API)
			{
				Name:  "wallet",
				Usage: "Scan wallets and inspect their cards",
				Subcommands: []*cli.Command{
					scanCommand(),
					mintedCommand(),
					readyCommand(),
				},
			},
			// Card commands (HTTP API)
			{
				Name:  "card",
				Usage: "Mint, like and burn cards",
				Subcommands: []*cli.Command{
					mintCommand(),
					likeCommand(),
					burnCommand(),
					statsCommand(),
				},
			},
			// Event streaming commands
			{
				Name:  "events",
				Usage: "Card event streaming commands",
				Subcommands: []*cli.Command{
					streamCommand(),
					awaitCommand(),
				},
			},
			workflowCommand(),
			// Offline commands
			skullCommand(),
			soulCommand(),
			dealCommand(),
			scoreCommand(),
			// Server utility commands
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Server URL",
				EnvVars: []string{"CRYPT_SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to JSON output (implies --json)",
			},
		},
	}
}
