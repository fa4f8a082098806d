package staker

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Network holds the fixed on-chain identifiers and fee constants a batch is built against.
// It is passed by value into the resolver and composer so tests can use alternate parameters.
type Network struct {
	Mint          solana.PublicKey // staked token mint
	Locker        solana.PublicKey // locker account the escrows belong to
	LockerProgram solana.PublicKey // program owning locker and escrows

	ComputeUnitPrice uint64 // micro-lamports per compute unit
	ComputeUnitLimit uint32
	Decimals         uint8 // token decimals used to scale whole-token amounts
}

// Mainnet returns the Jupiter locked-voter parameters
func Mainnet() Network {
	return Network{
		Mint:             solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"),
		Locker:           solana.MustPublicKeyFromBase58("CVMdMd79no569tjc5Sq7kzz8isbfCcFyBS5TLGsrZ5dN"),
		LockerProgram:    solana.MustPublicKeyFromBase58("voTpe3tHQ7AjQHMapgSue2HJFAh2cGsdokqN3XqmVSj"),
		ComputeUnitPrice: 30_000,
		ComputeUnitLimit: 30_000,
		Decimals:         6,
	}
}

// Scale converts whole tokens into the smallest unit.
// It returns ErrAmountOverflow when the result does not fit in a uint64.
func (n Network) Scale(tokens uint64) (uint64, error) {
	factor, err := n.unit()
	if err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(tokens, factor)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d tokens", ErrAmountOverflow, tokens)
	}
	return lo, nil
}

// MaxTokens is the largest whole-token amount Scale accepts
func (n Network) MaxTokens() uint64 {
	factor, err := n.unit()
	if err != nil {
		return 0
	}
	return math.MaxUint64 / factor
}

// Units converts a decimal token amount such as 2.5 into the smallest unit.
// Amounts finer than one smallest unit fail with ErrAmountPrecision.
func (n Network) Units(tokens float64) (uint64, error) {
	if math.IsNaN(tokens) || math.IsInf(tokens, 0) || math.Signbit(tokens) {
		return 0, fmt.Errorf("%w: %v", ErrAmountInvalid, tokens)
	}

	// Shortest decimal form that round-trips, e.g. 0.1 stays "0.1"
	text := strconv.FormatFloat(tokens, 'f', -1, 64)
	whole, frac, _ := strings.Cut(text, ".")
	if len(frac) > int(n.Decimals) {
		return 0, fmt.Errorf("%w: %s has more than %d decimals", ErrAmountPrecision, text, n.Decimals)
	}

	wholeTokens, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, text)
	}
	units, err := n.Scale(wholeTokens)
	if err != nil {
		return 0, err
	}

	if frac == "" {
		return units, nil
	}
	fracUnits, err := strconv.ParseUint(frac+strings.Repeat("0", int(n.Decimals)-len(frac)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrAmountInvalid, text)
	}
	sum, carry := bits.Add64(units, fracUnits, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, text)
	}
	return sum, nil
}

// unit is 10^Decimals
func (n Network) unit() (uint64, error) {
	factor := uint64(1)
	for range n.Decimals {
		hi, lo := bits.Mul64(factor, 10)
		if hi != 0 {
			return 0, fmt.Errorf("%w: %d decimals", ErrAmountOverflow, n.Decimals)
		}
		factor = lo
	}
	return factor, nil
}
