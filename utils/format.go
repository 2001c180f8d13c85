package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// InvalidAmountError is returned when a user-entered ether amount can't be parsed
type InvalidAmountError struct {
	Input  string
	Reason string
}

func (e InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// FormatEther renders a wei amount as ether. Amounts of 1000 ether and above
// keep 2 fractional digits and get thousands separators, smaller ones keep 4.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	d := decimal.NewFromBigInt(wei, -etherDecimals)
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return groupThousands(d.Round(2).String())
	}
	return d.Round(4).String()
}

// ParseEther converts a decimal ether string ("0.01") into wei.
// Negative values and values finer than 1 wei are rejected.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, InvalidAmountError{s, "not a number"}
	}
	if d.IsNegative() {
		return nil, InvalidAmountError{s, "negative"}
	}
	wei := d.Shift(etherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, InvalidAmountError{s, "more than 18 decimals"}
	}
	return wei.BigInt(), nil
}

// FormatAddress shortens an address to 0x1234...abcd
func FormatAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}

// FormatDuration renders a number of seconds as "45s", "3m 20s", "2h 5m" or "4d 3h"
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	case seconds < 86400:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	default:
		return fmt.Sprintf("%dd %dh", seconds/86400, (seconds%86400)/3600)
	}
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}
