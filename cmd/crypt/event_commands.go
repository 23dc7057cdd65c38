package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/crypt/client"
)

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "Stream card events as they happen",
		ArgsUsage: "[WALLET_ADDRESS]",
		Action: func(c *cli.Context) error {
			wallet := c.Args().First()
			if !jsonOutput(c) {
				target := "all wallets"
				if wallet != "" {
					target = wallet
				}
				fmt.Fprintf(c.App.ErrWriter, "Streaming events for %s (Ctrl+C to stop)\n\n", target)
			}

			err := newClient(c).Stream(c.Context, wallet, func(ev *client.Event) bool {
				if jsonOutput(c) {
					if err := printEventJSON(c, ev); err != nil {
						fmt.Fprintf(c.App.ErrWriter, "Error printing event: %v\n", err)
					}
					return true
				}
				fmt.Fprintf(c.App.Writer, "[%s] %s\n", ev.PublishedAt.Local().Format("15:04:05"), describeEvent(ev))
				return true
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// printEventJSON prints one event per line so the output can be piped.
func printEventJSON(c *cli.Context, ev *client.Event) error {
	if c.String("jq") != "" {
		return printJSON(c, ev)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}

func awaitCommand() *cli.Command {
	return &cli.Command{
		Name:      "await",
		Usage:     "Block until a card event matching criteria arrives",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Filter by event kind (scanned, minted, liked, burned)",
			},
			&cli.StringFlag{
				Name:  "signature",
				Usage: "Filter by card signature",
			},
			&cli.StringSliceFlag{
				Name:  "must-jq",
				Usage: "jq filter expression that must evaluate to true (can be specified multiple times, all must match)",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   5 * time.Minute,
				Usage:   "How long to wait for the event",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			wallet := c.Args().First()
			kind := c.String("kind")
			signature := c.String("signature")
			filters := c.StringSlice("must-jq")

			if kind == "" && signature == "" && len(filters) == 0 {
				return fmt.Errorf("must specify at least one filter: --kind, --signature, or --must-jq")
			}

			codes := make([]*gojq.Code, len(filters))
			for i, f := range filters {
				code, err := compileJQ(f)
				if err != nil {
					return err
				}
				codes[i] = code
			}

			matcher := func(ev *client.Event) bool {
				if kind != "" && ev.Kind != kind {
					return false
				}
				if signature != "" && ev.Signature != signature {
					return false
				}
				for _, code := range codes {
					if !jqMatches(code, ev) {
						return false
					}
				}
				return true
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			if !jsonOutput(c) {
				fmt.Fprintf(c.App.ErrWriter, "Waiting for event on %s (timeout: %s)...\n", wallet, c.Duration("timeout"))
			}
			ev, err := newClient(c).Await(ctx, wallet, matcher)
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("timed out waiting for event")
			}
			if err != nil {
				return fmt.Errorf("failed waiting for event: %w", err)
			}

			if jsonOutput(c) {
				return printJSON(c, ev)
			}
			fmt.Fprintf(c.App.Writer, "✓ %s\n", describeEvent(ev))
			return nil
		},
	}
}
