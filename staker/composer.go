package staker

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// Draft is the ordered, unsigned instruction list for one account's stake.
// It has no blockhash or fee payer yet; Seal attaches both right before signing.
type Draft struct {
	Owner        solana.PublicKey
	Amount       uint64
	Instructions []solana.Instruction
}

// Seal builds the unsigned transaction with a fresh blockhash and fee payer
func (d Draft) Seal(blockhash solana.Hash, feePayer solana.PublicKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(d.Instructions, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("building transaction: %w", err)
	}
	return tx, nil
}

// Composer builds stake instruction lists for a network
type Composer struct {
	network Network
}

// NewComposer creates a composer for network
func NewComposer(network Network) *Composer {
	return &Composer{network: network}
}

// Compose returns the instructions staking amount (smallest unit) for state.Owner.
//
// Order is fixed:
//  1. compute unit price, compute unit limit
//  2. escrow creation, only if the escrow is absent
//  3. escrow token account creation, only if it is absent
//  4. increase locked amount
func (c *Composer) Compose(state EscrowState, amount uint64) (Draft, error) {
	if amount == 0 {
		return Draft{}, ErrZeroAmount
	}

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitPriceInstruction(c.network.ComputeUnitPrice).Build(),
		computebudget.NewSetComputeUnitLimitInstruction(c.network.ComputeUnitLimit).Build(),
	}

	if !state.EscrowExists {
		ix, err := NewEscrowInstruction(c.network, state.Escrow, state.Owner, state.Owner)
		if err != nil {
			return Draft{}, err
		}
		instructions = append(instructions, ix)
	}

	if !state.EscrowTokensExists {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(state.Owner, state.Escrow, c.network.Mint).Build(),
		)
	}

	stake, err := IncreaseLockedAmountInstruction(c.network, state, amount)
	if err != nil {
		return Draft{}, err
	}
	instructions = append(instructions, stake)

	return Draft{
		Owner:        state.Owner,
		Amount:       amount,
		Instructions: instructions,
	}, nil
}
