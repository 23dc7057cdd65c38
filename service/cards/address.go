package cards

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for strings that are not a base58 encoded
// 32-byte account key.
var ErrInvalidAddress = errors.New("invalid wallet address")

// ValidateAddress checks that address is a base58 encoded 32-byte key.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if len(address) < 32 || len(address) > 44 {
		return fmt.Errorf("%w: length %d", ErrInvalidAddress, len(address))
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: decodes to %d bytes", ErrInvalidAddress, len(raw))
	}
	return nil
}
