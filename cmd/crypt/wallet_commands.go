package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/brojonat/crypt/client"
	"github.com/brojonat/crypt/service/cards"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Deal the cards for a wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "min-rarity",
				Usage: "Only show cards at or above this rarity (common, rare, legendary)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			wallet := c.Args().First()

			res, err := newClient(c).Scan(c.Context, wallet, c.String("min-rarity"))
			if err != nil {
				return fmt.Errorf("failed to scan wallet: %w", err)
			}
			if jsonOutput(c) {
				return printJSON(c, res)
			}

			w := c.App.Writer
			header := res.Wallet
			if res.Identity != nil && res.Identity.Username != "" {
				header = fmt.Sprintf("%s (@%s)", res.Wallet, res.Identity.Username)
			}
			fmt.Fprintln(w, titleStyle.Render(header))
			if len(res.Cards) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("No story-worthy transactions found."))
				return nil
			}
			for _, card := range res.Cards {
				printCard(c, card)
				if st, ok := res.Soundtracks[card.Type]; ok && st != nil {
					fmt.Fprintf(w, "    %s\n", mutedStyle.Render("♪ "+st.Title+" by "+st.Artist))
				}
			}
			return nil
		},
	}
}

func printCard(c *cli.Context, card cards.Card) {
	w := c.App.Writer
	fmt.Fprintf(w, "\n  %s  %s  %s\n",
		rarityStyle(card.Rarity).Render(strings.ToUpper(card.Rarity.String())),
		titleStyle.Render(card.Title),
		mutedStyle.Render(string(card.Type)),
	)
	fmt.Fprintf(w, "    %s\n", card.Narration)
	fmt.Fprintf(w, "    %s %s -> %s %s   %s   %s\n",
		card.Out.Amount, card.Out.Symbol,
		card.In.Amount, card.In.Symbol,
		pnlStyle(card.Up).Render(card.PnL),
		mutedStyle.Render(card.Platform+" · "+card.Ago+" · "+card.Tx),
	)
}

func mintedCommand() *cli.Command {
	return &cli.Command{
		Name:      "minted",
		Usage:     "List the cards a wallet has minted",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Value:   50,
				Usage:   "Maximum number of cards to return",
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Number of cards to skip",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}

			minted, err := newClient(c).Minted(c.Context, c.Args().First(), c.Int("limit"), c.Int("offset"))
			if err != nil {
				return fmt.Errorf("failed to list minted cards: %w", err)
			}
			if jsonOutput(c) {
				return printJSON(c, minted)
			}

			w := c.App.Writer
			if len(minted) == 0 {
				fmt.Fprintln(w, "No minted cards found.")
				return nil
			}
			for _, mc := range minted {
				status := ""
				if mc.Burned {
					status = mutedStyle.Render(" [burned]")
				}
				fmt.Fprintf(w, "%s  %-10s  %s  ♥ %d%s\n",
					mc.MintedAt.Format("2006-01-02 15:04"),
					rarityStyle(mc.Rarity).Render(mc.Rarity.String()),
					mc.Title,
					mc.Likes,
					status,
				)
				fmt.Fprintf(w, "    %s\n", mutedStyle.Render(mc.Signature))
			}
			return nil
		},
	}
}

func readyCommand() *cli.Command {
	return &cli.Command{
		Name:      "ready",
		Usage:     "Check whether a wallet can pay for a mint",
		ArgsUsage: "WALLET_ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}

			ready, err := newClient(c).Ready(c.Context, c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to check wallet: %w", err)
			}
			if jsonOutput(c) {
				return printJSON(c, ready)
			}

			w := c.App.Writer
			if ready.Ready {
				fmt.Fprintf(w, "✓ Ready on %s (balance: %.4f SOL)\n", ready.Network, ready.Balance)
				return nil
			}
			reason := ready.Reason
			if reason == "" {
				reason = fmt.Sprintf("balance %.4f SOL is too low", ready.Balance)
			}
			fmt.Fprintf(w, "✗ Not ready: %s\n", reason)
			return nil
		},
	}
}

// describeEvent renders an event on one line.
func describeEvent(ev *client.Event) string {
	switch ev.Kind {
	case "scanned":
		return fmt.Sprintf("scanned  %s  %d cards", ev.Wallet, ev.CardCount)
	case "minted":
		return fmt.Sprintf("minted   %s  %s -> %s", ev.Wallet, ev.Signature, ev.MintSignature)
	case "liked":
		verb := "unliked"
		if ev.Liked {
			verb = "liked"
		}
		return fmt.Sprintf("%-8s %s  %s  (%d likes)", verb, ev.Wallet, ev.Signature, ev.Likes)
	case "burned":
		return fmt.Sprintf("burned   %s  %s", ev.Wallet, ev.Signature)
	}
	return fmt.Sprintf("%-8s %s", ev.Kind, ev.Wallet)
}
