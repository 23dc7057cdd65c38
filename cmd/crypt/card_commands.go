package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/brojonat/crypt/client"
	"github.com/brojonat/crypt/service/cards"
)

func walletFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "wallet",
		Aliases:  []string{"w"},
		Usage:    "Wallet address acting on the card",
		EnvVars:  []string{"CRYPT_WALLET"},
		Required: true,
	}
}

// readCard loads a card from a JSON file, or from stdin when path is "-".
func readCard(stdin io.Reader, path string) (cards.Card, error) {
	var card cards.Card
	data, err := readInput(stdin, path)
	if err != nil {
		return card, err
	}
	if err := json.Unmarshal(data, &card); err != nil {
		return card, fmt.Errorf("failed to parse card: %w", err)
	}
	if card.SourceSignature() == "" {
		return card, fmt.Errorf("card has no transaction signature")
	}
	return card, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func mintCommand() *cli.Command {
	return &cli.Command{
		Name:      "mint",
		Usage:     "Mint a card from a scan as an on-chain memo",
		ArgsUsage: "CARD_JSON_FILE (or - for stdin)",
		Flags: []cli.Flag{
			walletFlag(),
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for the mint workflow to finish",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   2 * time.Minute,
				Usage:   "How long to wait with --wait",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("card file is required")
			}
			card, err := readCard(c.App.Reader, c.Args().First())
			if err != nil {
				return err
			}

			cl := newClient(c)
			started, err := cl.Mint(c.Context, card, c.String("wallet"))
			if errors.Is(err, client.ErrConflict) {
				fmt.Fprintf(c.App.ErrWriter, "Card is already minted or being minted (workflow %s)\n", started.WorkflowID)
			} else if err != nil {
				return fmt.Errorf("failed to start mint: %w", err)
			}

			if !c.Bool("wait") {
				if jsonOutput(c) {
					return printJSON(c, started)
				}
				fmt.Fprintf(c.App.Writer, "✓ Mint started\n  Workflow: %s\n  Card:     %s\n", started.WorkflowID, started.Signature)
				return nil
			}
			return waitAndPrint(c, cl, started.WorkflowID)
		},
	}
}

// waitAndPrint polls a workflow to completion and prints the final status.
func waitAndPrint(c *cli.Context, cl *client.Client, workflowID string) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	status, err := cl.WaitForWorkflow(ctx, workflowID, time.Second)
	if err != nil {
		return fmt.Errorf("failed waiting for workflow %s: %w", workflowID, err)
	}
	if jsonOutput(c) {
		return printJSON(c, status)
	}
	printWorkflowStatus(c, status)
	if status.Status != "completed" {
		return fmt.Errorf("workflow %s %s", workflowID, status.Status)
	}
	return nil
}

func printWorkflowStatus(c *cli.Context, status *client.WorkflowStatus) {
	w := c.App.Writer
	fmt.Fprintf(w, "Workflow: %s\n", status.WorkflowID)
	fmt.Fprintf(w, "Status:   %s\n", status.Status)
	if status.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", status.Error)
	}
	if len(status.Result) > 0 {
		fmt.Fprintf(w, "Result:   %s\n", string(status.Result))
	}
}

func workflowCommand() *cli.Command {
	return &cli.Command{
		Name:      "workflow",
		Usage:     "Show the status of a mint or scan workflow",
		ArgsUsage: "WORKFLOW_ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for the workflow to finish",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   2 * time.Minute,
				Usage:   "How long to wait with --wait",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("workflow id is required")
			}
			cl := newClient(c)
			id := c.Args().First()
			if c.Bool("wait") {
				return waitAndPrint(c, cl, id)
			}

			status, err := cl.Workflow(c.Context, id)
			if err != nil {
				return fmt.Errorf("failed to get workflow: %w", err)
			}
			if jsonOutput(c) {
				return printJSON(c, status)
			}
			printWorkflowStatus(c, status)
			return nil
		},
	}
}

func likeCommand() *cli.Command {
	return &cli.Command{
		Name:      "like",
		Usage:     "Toggle a like on a card",
		ArgsUsage: "SIGNATURE",
		Flags:     []cli.Flag{walletFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("card signature is required")
			}
			res, err := newClient(c).Like(c.Context, c.Args().First(), c.String("wallet"))
			if err != nil {
				return fmt.Errorf("failed to toggle like: %w", err)
			}
			if jsonOutput(c) {
				return printJSON(c, res)
			}
			verb := "Unliked"
			if res.Liked {
				verb = "Liked"
			}
			fmt.Fprintf(c.App.Writer, "✓ %s (%d likes)\n", verb, res.Likes)
			return nil
		},
	}
}

func burnCommand() *cli.Command {
	return &cli.Command{
		Name:      "burn",
		Usage:     "Burn a minted card you own",
		ArgsUsage: "SIGNATURE",
		Flags:     []cli.Flag{walletFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("card signature is required")
			}
			mc, err := newClient(c).Burn(c.Context, c.Args().First(), c.String("wallet"))
			if err != nil {
				return fmt.Errorf("failed to burn card: %w", err)
			}
			if jsonOutput(c) {
				return printJSON(c, mc)
			}
			fmt.Fprintf(c.App.Writer, "✓ Burned %s\n", mc.Signature)
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarise the card ledger",
		Action: func(c *cli.Context) error {
			stats, err := newClient(c).Stats(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			if jsonOutput(c) {
				return printJSON(c, stats)
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Minted: %d\n", stats.TotalMinted)
			fmt.Fprintf(w, "Burned: %d\n", stats.Burned)
			fmt.Fprintf(w, "Likes:  %d\n", stats.TotalLikes)
			rarities := make([]string, 0, len(stats.ByRarity))
			for r := range stats.ByRarity {
				rarities = append(rarities, r)
			}
			sort.Strings(rarities)
			for _, r := range rarities {
				fmt.Fprintf(w, "  %-10s %d\n", r, stats.ByRarity[r])
			}
			return nil
		},
	}
}
