package flowtx

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/onflow/flow-go-sdk"
)

// AmountDecimals is the number of fractional digits every token amount is
// rounded to before it is handed to a template.
const AmountDecimals = 2

var (
	amountPattern  = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)
	addressPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{1,16}$`)

	maxUFix64, _ = new(big.Rat).SetString("184467440737.09551615")
)

// FormatAmount renders a non-negative decimal string as a fixed-point value
// with two fractional digits, rounding half up: "30" -> "30.00",
// "30.456" -> "30.46".
func FormatAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(AmountDecimals), nil)
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(scale))
	scaled.Add(scaled, big.NewRat(1, 2))
	units := new(big.Int).Quo(scaled.Num(), scaled.Denom())

	if new(big.Rat).SetFrac(units, scale).Cmp(maxUFix64) > 0 {
		return "", fmt.Errorf("%w: %q exceeds UFix64 range", ErrInvalidAmount, s)
	}

	whole, frac := new(big.Int).QuoRem(units, scale, new(big.Int))
	return fmt.Sprintf("%s.%0*d", whole.String(), AmountDecimals, frac.Int64()), nil
}

// ParseAddress accepts an account address with or without the 0x prefix and
// left-pads it to the platform's eight bytes.
func ParseAddress(s string) (flow.Address, error) {
	s = strings.TrimSpace(s)
	if !addressPattern.MatchString(s) {
		return flow.EmptyAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	h := strings.TrimPrefix(s, "0x")
	h = strings.Repeat("0", 16-len(h)) + h
	return flow.HexToAddress(h), nil
}
