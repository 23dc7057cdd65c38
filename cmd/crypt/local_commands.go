package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/rng"
	"github.com/brojonat/crypt/service/skull"
)

func rarityFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "rarity",
		Aliases: []string{"r"},
		Value:   "common",
		Usage:   "Palette rarity (common, rare, legendary)",
	}
}

func parseRarityFlag(c *cli.Context) (cards.Rarity, error) {
	r, ok := cards.ParseRarity(strings.ToLower(c.String("rarity")))
	if !ok {
		return cards.Common, fmt.Errorf("invalid rarity %q: must be common, rare or legendary", c.String("rarity"))
	}
	return r, nil
}

func skullCommand() *cli.Command {
	return &cli.Command{
		Name:      "skull",
		Usage:     "Render the pixel skull for a seed",
		ArgsUsage: "SEED",
		Flags: []cli.Flag{
			rarityFlag(),
			&cli.StringFlag{
				Name:    "png",
				Aliases: []string{"o"},
				Usage:   "Write a PNG to this path instead of printing",
			},
			&cli.IntFlag{
				Name:  "scale",
				Value: 8,
				Usage: "PNG pixels per cell",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("seed is required")
			}
			seed := c.Args().First()
			rarity, err := parseRarityFlag(c)
			if err != nil {
				return err
			}
			id := skull.Generate(seed)
			pal := skull.PaletteFor(rarity)

			if path := c.String("png"); path != "" {
				scale := c.Int("scale")
				if scale < 1 || scale > skull.MaxScale {
					return fmt.Errorf("scale must be between 1 and %d", skull.MaxScale)
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer f.Close()
				if err := id.WritePNG(f, pal, scale); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "✓ Wrote %s (%dx%d)\n", path, skull.FrameWidth*scale, skull.FrameHeight*scale)
				return nil
			}

			if jsonOutput(c) {
				return printJSON(c, map[string]interface{}{
					"seed":     seed,
					"rarity":   rarity,
					"identity": id,
					"palette":  pal,
				})
			}
			fmt.Fprint(c.App.Writer, id.Terminal(pal))
			return nil
		},
	}
}

func soulCommand() *cli.Command {
	return &cli.Command{
		Name:      "soul",
		Usage:     "Derive the soul seed for a transaction hash",
		ArgsUsage: "TX_HASH",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("transaction hash is required")
			}
			tx := c.Args().First()
			hex, b58 := rng.SoulSeedHex(tx), rng.SoulSeedBase58(tx)

			if jsonOutput(c) {
				return printJSON(c, map[string]string{
					"tx":     tx,
					"hex":    hex,
					"base58": b58,
				})
			}
			fmt.Fprintf(c.App.Writer, "hex:    %s\nbase58: %s\n", hex, b58)
			return nil
		},
	}
}

func dealCommand() *cli.Command {
	return &cli.Command{
		Name:      "deal",
		Usage:     "Deal cards from a saved history without touching the network",
		ArgsUsage: "HISTORY_JSON_FILE (or - for stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "wallet",
				Aliases:  []string{"w"},
				Usage:    "Wallet the history belongs to",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "explain",
				Usage: "Show every transaction's score and whether it was selected",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("history file is required")
			}
			data, err := readInput(c.App.Reader, c.Args().First())
			if err != nil {
				return err
			}
			var txs []cards.RawTransaction
			if err := json.Unmarshal(data, &txs); err != nil {
				return fmt.Errorf("failed to parse history: %w", err)
			}
			wallet := c.String("wallet")

			if c.Bool("explain") {
				return explain(c, txs, wallet)
			}

			logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
			scanner := cards.NewScanner(nil, nil, nil, 0, nil, logger)
			dealt := scanner.Compose(c.Context, wallet, txs)
			if jsonOutput(c) {
				return printJSON(c, dealt)
			}
			if len(dealt) == 0 {
				fmt.Fprintln(c.App.Writer, "No story-worthy transactions found.")
				return nil
			}
			for _, card := range dealt {
				printCard(c, card)
			}
			return nil
		},
	}
}

type explained struct {
	Signature string     `json:"signature"`
	Type      string     `json:"type"`
	Score     int        `json:"score"`
	Tags      cards.Tags `json:"tags"`
	Selected  bool       `json:"selected"`
}

func explain(c *cli.Context, txs []cards.RawTransaction, wallet string) error {
	ranked := cards.Rank(txs, wallet, nil)
	selected, relaxed := cards.Select(ranked)
	picked := make(map[string]bool, len(selected))
	for _, s := range selected {
		picked[s.Tx.Signature] = true
	}

	rows := make([]explained, len(ranked))
	for i, r := range ranked {
		rows[i] = explained{
			Signature: r.Tx.Signature,
			Type:      r.Tx.Type,
			Score:     r.Score,
			Tags:      r.Tags,
			Selected:  picked[r.Tx.Signature],
		}
	}
	if jsonOutput(c) {
		return printJSON(c, map[string]interface{}{"relaxed": relaxed, "ranked": rows})
	}

	w := c.App.Writer
	for _, row := range rows {
		mark := " "
		if row.Selected {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %5d  %-20s %s\n", mark, row.Score, row.Type, mutedStyle.Render(row.Signature))
	}
	if relaxed {
		fmt.Fprintln(w, mutedStyle.Render("(type cap relaxed to fill the hand)"))
	}
	return nil
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score a synthetic transaction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Value: "SWAP",
				Usage: "Provider transaction type (SWAP, NFT_MINT, TRANSFER, ...)",
			},
			&cli.Float64Flag{
				Name:  "sol",
				Usage: "Largest native transfer, in SOL",
			},
			&cli.BoolFlag{
				Name:  "memecoin",
				Usage: "Include a memecoin token transfer",
			},
			&cli.BoolFlag{
				Name:  "defi",
				Usage: "Route the transaction through a DeFi venue",
			},
		},
		Action: func(c *cli.Context) error {
			tx := syntheticTx(c.String("type"), c.Float64("sol"), c.Bool("memecoin"), c.Bool("defi"))
			res := cards.Score(tx, syntheticWallet)
			rarity := cards.RarityFor(res.SOL, res.Tags)

			if jsonOutput(c) {
				return printJSON(c, map[string]interface{}{
					"type":   tx.Type,
					"score":  res.Score,
					"tags":   res.Tags,
					"sol":    res.SOL,
					"rarity": rarity,
				})
			}
			w := c.App.Writer
			fmt.Fprintf(w, "Score:  %d\n", res.Score)
			fmt.Fprintf(w, "Rarity: %s\n", rarityStyle(rarity).Render(rarity.String()))
			if len(res.Tags) > 0 {
				fmt.Fprintf(w, "Tags:   %s\n", strings.Join(res.Tags, ", "))
			}
			return nil
		},
	}
}

const (
	syntheticWallet = "11111111111111111111111111111111"
	syntheticPeer   = "SysvarRent111111111111111111111111111111111"
	bonkMint        = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

// syntheticTx builds a transaction in which the wallet sends sol to a peer.
func syntheticTx(typ string, sol float64, memecoin, defi bool) cards.RawTransaction {
	tx := cards.RawTransaction{
		Type:      strings.ToUpper(typ),
		Signature: "synthetic",
	}
	if sol > 0 {
		tx.NativeTransfers = []cards.NativeTransfer{{
			FromUserAccount: syntheticWallet,
			ToUserAccount:   syntheticPeer,
			Amount:          int64(sol * 1e9),
		}}
	}
	if memecoin {
		tx.TokenTransfers = []cards.TokenTransfer{{
			FromUserAccount: syntheticPeer,
			ToUserAccount:   syntheticWallet,
			Mint:            bonkMint,
			TokenAmount:     1_000_000,
		}}
	}
	if defi {
		tx.Source = "JUPITER"
	}
	return tx
}
