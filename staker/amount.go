package staker

import (
	"math"
	"math/rand/v2"
)

// FallbackAmount is staked, in whole tokens, when neither an exact amount nor a range is set
const FallbackAmount = uint64(1)

// AmountRange is an inclusive range of whole tokens
type AmountRange struct {
	Min uint64
	Max uint64
}

// AmountPolicy decides how much each account stakes.
// Exact takes precedence over Range.
type AmountPolicy struct {
	Exact uint64       // smallest unit, zero means unset
	Range *AmountRange // whole tokens, nil means unset
}

// Resolve returns the amount for one account in the token's smallest unit.
// Ranged and fallback amounts are scaled and fail with ErrAmountOverflow when too large.
func (p AmountPolicy) Resolve(network Network, rng *rand.Rand) (uint64, error) {
	switch {
	case p.Exact > 0:
		return p.Exact, nil
	case p.Range != nil:
		return network.Scale(p.Range.draw(rng))
	default:
		return network.Scale(FallbackAmount)
	}
}

// draw picks uniformly from [Min, Max]
func (r AmountRange) draw(rng *rand.Rand) uint64 {
	lo, hi := r.Min, r.Max
	switch {
	case hi <= lo:
		return lo
	case hi-lo == math.MaxUint64:
		return rng.Uint64()
	default:
		return lo + rng.Uint64N(hi-lo+1)
	}
}
