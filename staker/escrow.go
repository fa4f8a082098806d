package staker

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// escrowSeed is the program-defined tag prefixed to escrow derivation seeds
const escrowSeed = "Escrow"

// EscrowState holds the derived addresses for one owner and whether they exist on the ledger
type EscrowState struct {
	Owner        solana.PublicKey
	Escrow       solana.PublicKey
	EscrowTokens solana.PublicKey // escrow-owned token account receiving the stake
	SourceTokens solana.PublicKey // owner's token account the stake is drawn from

	EscrowExists       bool
	EscrowTokensExists bool
}

// EscrowResolver derives escrow addresses and checks their existence
type EscrowResolver struct {
	network Network
	ledger  AccountLookup
}

// NewEscrowResolver creates a resolver for network. ledger may be nil when only Derive is used.
func NewEscrowResolver(network Network, ledger AccountLookup) *EscrowResolver {
	return &EscrowResolver{network: network, ledger: ledger}
}

// Derive computes the owner's escrow, escrow token account and source token account.
// It performs no I/O and always yields the same addresses for the same owner.
func (r *EscrowResolver) Derive(owner solana.PublicKey) (EscrowState, error) {
	escrow, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(escrowSeed), r.network.Locker.Bytes(), owner.Bytes()},
		r.network.LockerProgram,
	)
	if err != nil {
		return EscrowState{}, fmt.Errorf("%w: escrow: %w", ErrDerivation, err)
	}

	escrowTokens, _, err := solana.FindAssociatedTokenAddress(escrow, r.network.Mint)
	if err != nil {
		return EscrowState{}, fmt.Errorf("%w: escrow tokens: %w", ErrDerivation, err)
	}

	sourceTokens, _, err := solana.FindAssociatedTokenAddress(owner, r.network.Mint)
	if err != nil {
		return EscrowState{}, fmt.Errorf("%w: source tokens: %w", ErrDerivation, err)
	}

	return EscrowState{
		Owner:        owner,
		Escrow:       escrow,
		EscrowTokens: escrowTokens,
		SourceTokens: sourceTokens,
	}, nil
}

// Resolve derives the owner's addresses and looks up whether the escrow
// and its token account already exist.
func (r *EscrowResolver) Resolve(ctx context.Context, owner solana.PublicKey) (EscrowState, error) {
	state, err := r.Derive(owner)
	if err != nil {
		return EscrowState{}, err
	}

	state.EscrowExists, err = r.ledger.AccountExists(ctx, state.Escrow)
	if err != nil {
		return EscrowState{}, fmt.Errorf("%w: %w", ErrEscrowLookup, err)
	}

	state.EscrowTokensExists, err = r.ledger.AccountExists(ctx, state.EscrowTokens)
	if err != nil {
		return EscrowState{}, fmt.Errorf("%w: %w", ErrEscrowLookup, err)
	}

	return state, nil
}
