package solana

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/crypt/service/cards"
)

// Well-known Solana program IDs
var (
	// SystemProgramID is the native SOL transfer program
	SystemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Token2022ProgramID is the Token Extensions program (Token-2022)
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// MemoProgramIDSPL is the SPL Memo program (most common)
	MemoProgramIDSPL = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	// MemoProgramIDLegacy is the legacy memo program (v1)
	MemoProgramIDLegacy = solana.MustPublicKeyFromBase58("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")
)

// System Program instruction types
const (
	SystemProgramTransferInstruction = uint32(2)
)

// Token Program instruction types
const (
	TokenProgramTransferInstruction        = uint8(3)
	TokenProgramTransferCheckedInstruction = uint8(12)
)

// Labels the RPC fallback gives the transactions it reconstructs. The
// enhanced provider classifies far more precisely; without it every value
// movement reads as a transfer.
const (
	fallbackType   = "TRANSFER"
	unknownType    = "UNKNOWN"
	fallbackSource = "SYSTEM_PROGRAM"
)

// signatureToRaw converts signature metadata into a transaction with no
// transfers. Such entries score below zero and never become cards, but they
// keep the history length honest.
func signatureToRaw(sig *rpc.TransactionSignature) cards.RawTransaction {
	tx := cards.RawTransaction{
		Type:      unknownType,
		Signature: sig.Signature.String(),
	}
	if sig.BlockTime != nil {
		tx.Timestamp = int64(*sig.BlockTime)
	}
	return tx
}

// tokenAccount is what the transaction meta says about one token account.
type tokenAccount struct {
	mint     string
	owner    string
	decimals uint8
}

func tokenAccounts(meta *rpc.TransactionMeta) map[uint16]tokenAccount {
	out := make(map[uint16]tokenAccount)
	if meta == nil {
		return out
	}
	for _, balances := range [][]rpc.TokenBalance{meta.PreTokenBalances, meta.PostTokenBalances} {
		for _, b := range balances {
			ta := tokenAccount{mint: b.Mint.String()}
			if b.Owner != nil {
				ta.owner = b.Owner.String()
			}
			if b.UiTokenAmount != nil {
				ta.decimals = b.UiTokenAmount.Decimals
			}
			out[b.AccountIndex] = ta
		}
	}
	return out
}

// parseTransactionFromResult rebuilds a RawTransaction from a full RPC
// result: native transfers from System Program instructions, token
// transfers from SPL Token instructions.
func parseTransactionFromResult(sig *rpc.TransactionSignature, result *rpc.GetTransactionResult) (cards.RawTransaction, error) {
	raw := signatureToRaw(sig)
	if result == nil || result.Transaction == nil {
		return raw, nil
	}
	if result.BlockTime != nil && raw.Timestamp == 0 {
		raw.Timestamp = int64(*result.BlockTime)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return raw, fmt.Errorf("failed to decode transaction: %w", err)
	}

	accountKeys := tx.Message.AccountKeys
	accounts := tokenAccounts(result.Meta)
	key := func(idx uint16) string {
		if int(idx) < len(accountKeys) {
			return accountKeys[idx].String()
		}
		return ""
	}

	systemOnly := true
	for _, instruction := range tx.Message.Instructions {
		if int(instruction.ProgramIDIndex) >= len(accountKeys) {
			continue
		}
		programID := accountKeys[instruction.ProgramIDIndex]

		switch {
		case programID.Equals(SystemProgramID):
			amount, err := parseSystemTransfer(instruction)
			if err != nil || len(instruction.Accounts) < 2 {
				continue
			}
			raw.NativeTransfers = append(raw.NativeTransfers, cards.NativeTransfer{
				FromUserAccount: key(instruction.Accounts[0]),
				ToUserAccount:   key(instruction.Accounts[1]),
				Amount:          int64(amount),
			})

		case programID.Equals(TokenProgramID) || programID.Equals(Token2022ProgramID):
			systemOnly = false
			t, err := parseTokenTransfer(instruction, accountKeys, accounts)
			if err != nil {
				continue
			}
			raw.TokenTransfers = append(raw.TokenTransfers, t)

		case programID.Equals(MemoProgramIDSPL) || programID.Equals(MemoProgramIDLegacy):
			// Memos carry no value.

		default:
			systemOnly = false
		}
	}

	if len(raw.NativeTransfers) > 0 || len(raw.TokenTransfers) > 0 {
		raw.Type = fallbackType
	}
	if systemOnly && len(raw.NativeTransfers) > 0 {
		raw.Source = fallbackSource
	}
	return raw, nil
}

// parseSystemTransfer extracts the lamports from a System Program Transfer
// instruction.
func parseSystemTransfer(instruction solana.CompiledInstruction) (uint64, error) {
	// [0..4]  = instruction type (u32, 2 = Transfer)
	// [4..12] = lamports (u64)
	if len(instruction.Data) < 12 {
		return 0, fmt.Errorf("instruction data too short: %d bytes", len(instruction.Data))
	}
	instructionType := binary.LittleEndian.Uint32(instruction.Data[0:4])
	if instructionType != SystemProgramTransferInstruction {
		return 0, fmt.Errorf("not a transfer instruction: type %d", instructionType)
	}
	return binary.LittleEndian.Uint64(instruction.Data[4:12]), nil
}

// parseTokenTransfer extracts an SPL token movement. Transfer instructions
// do not name their mint, so the mint, owners and decimals come from the
// transaction's token balance records.
func parseTokenTransfer(instruction solana.CompiledInstruction, accountKeys []solana.PublicKey, accounts map[uint16]tokenAccount) (cards.TokenTransfer, error) {
	if len(instruction.Data) == 0 {
		return cards.TokenTransfer{}, fmt.Errorf("empty instruction data")
	}
	owner := func(idx uint16) string {
		if ta, ok := accounts[idx]; ok && ta.owner != "" {
			return ta.owner
		}
		if int(idx) < len(accountKeys) {
			return accountKeys[idx].String()
		}
		return ""
	}

	switch instruction.Data[0] {
	case TokenProgramTransferInstruction:
		// [0] = type, [1..9] = amount (u64)
		// accounts: [source, destination, authority]
		if len(instruction.Data) < 9 || len(instruction.Accounts) < 3 {
			return cards.TokenTransfer{}, fmt.Errorf("transfer instruction too short")
		}
		amount := binary.LittleEndian.Uint64(instruction.Data[1:9])
		src, dst := instruction.Accounts[0], instruction.Accounts[1]
		ta, ok := accounts[dst]
		if !ok {
			ta, ok = accounts[src]
		}
		if !ok {
			return cards.TokenTransfer{}, fmt.Errorf("no token balance for transfer accounts")
		}
		from := owner(src)
		if _, known := accounts[src]; !known {
			from = owner(instruction.Accounts[2])
		}
		return cards.TokenTransfer{
			FromUserAccount: from,
			ToUserAccount:   owner(dst),
			Mint:            ta.mint,
			TokenAmount:     uiAmount(amount, ta.decimals),
		}, nil

	case TokenProgramTransferCheckedInstruction:
		// [0] = type, [1..9] = amount (u64), [9] = decimals
		// accounts: [source, mint, destination, authority]
		if len(instruction.Data) < 10 || len(instruction.Accounts) < 4 {
			return cards.TokenTransfer{}, fmt.Errorf("transferChecked instruction too short")
		}
		mintIdx := instruction.Accounts[1]
		if int(mintIdx) >= len(accountKeys) {
			return cards.TokenTransfer{}, fmt.Errorf("mint account index out of bounds")
		}
		amount := binary.LittleEndian.Uint64(instruction.Data[1:9])
		from := owner(instruction.Accounts[3])
		if ta, ok := accounts[instruction.Accounts[0]]; ok && ta.owner != "" {
			from = ta.owner
		}
		return cards.TokenTransfer{
			FromUserAccount: from,
			ToUserAccount:   owner(instruction.Accounts[2]),
			Mint:            accountKeys[mintIdx].String(),
			TokenAmount:     uiAmount(amount, instruction.Data[9]),
		}, nil

	default:
		return cards.TokenTransfer{}, fmt.Errorf("unknown token instruction type: %d", instruction.Data[0])
	}
}

func uiAmount(amount uint64, decimals uint8) float64 {
	return float64(amount) / math.Pow10(int(decimals))
}

// parseMemo extracts the memo text from a Memo Program instruction. Some
// clients base64 the payload; those are decoded when the result is text.
func parseMemo(data []byte) string {
	memo := string(data)
	if decoded, err := base64.StdEncoding.DecodeString(memo); err == nil && isText(decoded) {
		return string(decoded)
	}
	return memo
}

func isText(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, c := range b {
		if c == 0 {
			return false
		}
	}
	return true
}
