// Package staker batch-stakes tokens into locked-voter escrows, one account at a time.
package staker

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Sentinel errors for failure cases
var (
	ErrDerivation   = errors.New("address derivation failed")
	ErrEscrowLookup = errors.New("escrow lookup failed")
	ErrCompose      = errors.New("transaction composition failed")
	ErrZeroAmount   = errors.New("stake amount must be positive")
	ErrBlockhash    = errors.New("blockhash fetch failed")
	ErrSign         = errors.New("transaction signing failed")
	ErrSubmit       = errors.New("transaction submission failed")

	// Amount conversion errors
	ErrAmountInvalid   = errors.New("amount must be a positive number")
	ErrAmountOverflow  = errors.New("amount does not fit in the token's smallest unit")
	ErrAmountPrecision = errors.New("amount is finer than the token's smallest unit")
)

// Default configuration values
const (
	DefaultPacing       = 5 * time.Second
	DefaultStartupDelay = time.Duration(0)
)

// AccountLookup checks whether an address exists on the ledger
type AccountLookup interface {
	AccountExists(ctx context.Context, address solana.PublicKey) (bool, error)
}

// Ledger is the remote service a batch talks to
// ---------------------------------------------
type Ledger interface {
	AccountLookup
	// LatestBlockhash returns a fresh blockhash to attach to a transaction
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// SendRawTransaction submits a signed, serialized transaction
	SendRawTransaction(ctx context.Context, rawTx []byte, skipPreflight bool) (solana.Signature, error)
}

// Journal records per-account outcomes
type Journal interface {
	SaveOutcome(ctx context.Context, batchID uuid.UUID, outcome Outcome) error
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Stage is the last step an account's pipeline reached
type Stage int

const (
	StagePending Stage = iota
	StageAmountResolved
	StageTransactionBuilt
	StageBlockhashAttached
	StageSigned
	StageSubmitted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageAmountResolved:
		return "amount_resolved"
	case StageTransactionBuilt:
		return "transaction_built"
	case StageBlockhashAttached:
		return "blockhash_attached"
	case StageSigned:
		return "signed"
	case StageSubmitted:
		return "submitted"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStage is the inverse of Stage.String; unknown names map to StagePending
func ParseStage(name string) Stage {
	for s := StagePending; s <= StageFailed; s++ {
		if s.String() == name {
			return s
		}
	}
	return StagePending
}

// Outcome is the result of processing one account
type Outcome struct {
	Index     int
	Owner     solana.PublicKey
	Amount    uint64 // smallest unit
	Stage     Stage
	FailedAt  Stage            // last stage reached before failing
	Signature solana.Signature // set once submitted
	Err       error            // set once failed
}

// Succeeded reports whether the transaction was submitted
func (o Outcome) Succeeded() bool {
	return o.Stage == StageSubmitted
}

// Event represents a batch lifecycle event
// ----------------------------------------
type Event any

type BatchStarted struct {
	BatchID   uuid.UUID
	StartedAt time.Time
	Accounts  int
}

type AccountStarted struct {
	Index int
	Owner solana.PublicKey
}

type StakeSubmitted struct {
	Outcome Outcome
}

type StakeFailed struct {
	Outcome Outcome
}

type JournalError struct {
	Owner solana.PublicKey
	Err   error
}

type BatchDone struct {
	Report Report
}
