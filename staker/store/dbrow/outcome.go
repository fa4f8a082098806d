package dbrow

import (
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/screwyprof/jupstaker/staker"
)

// ErrOutOfRange is returned when a value does not fit its column
var ErrOutOfRange = errors.New("value out of column range")

// Outcome represents a stake outcome as stored in the database
type Outcome struct {
	BatchID   uuid.UUID `db:"batch_id"`
	Index     int32     `db:"idx"`
	Owner     string    `db:"owner"`
	Amount    int64     `db:"amount"`
	Stage     string    `db:"stage"`
	FailedAt  *string   `db:"failed_at"`
	Signature *string   `db:"signature"`
	Error     *string   `db:"error"`
	// created_at is handled by database DEFAULT CURRENT_TIMESTAMP
}

// FromOutcome converts a staker outcome into its database row.
// Index must fit INTEGER and Amount must fit BIGINT.
func FromOutcome(batchID uuid.UUID, o staker.Outcome) (Outcome, error) {
	if o.Index < 0 || o.Index > math.MaxInt32 {
		return Outcome{}, fmt.Errorf("%w: index %d", ErrOutOfRange, o.Index)
	}
	if o.Amount > math.MaxInt64 {
		return Outcome{}, fmt.Errorf("%w: amount %d", ErrOutOfRange, o.Amount)
	}

	row := Outcome{
		BatchID: batchID,
		Index:   int32(o.Index),
		Owner:   o.Owner.String(),
		Amount:  int64(o.Amount),
		Stage:   o.Stage.String(),
	}
	if o.Succeeded() {
		sig := o.Signature.String()
		row.Signature = &sig
		return row, nil
	}

	failedAt := o.FailedAt.String()
	row.FailedAt = &failedAt
	if o.Err != nil {
		msg := o.Err.Error()
		row.Error = &msg
	}
	return row, nil
}

// ToOutcome converts a database row back into a staker outcome.
// The error chain is not preserved, only its message.
func (r Outcome) ToOutcome() (staker.Outcome, error) {
	if r.Index < 0 || r.Amount < 0 {
		return staker.Outcome{}, fmt.Errorf("%w: index %d, amount %d", ErrOutOfRange, r.Index, r.Amount)
	}

	owner, err := solana.PublicKeyFromBase58(r.Owner)
	if err != nil {
		return staker.Outcome{}, err
	}

	o := staker.Outcome{
		Index:  int(r.Index),
		Owner:  owner,
		Amount: uint64(r.Amount),
		Stage:  staker.ParseStage(r.Stage),
	}
	if r.FailedAt != nil {
		o.FailedAt = staker.ParseStage(*r.FailedAt)
	}
	if r.Signature != nil {
		if o.Signature, err = solana.SignatureFromBase58(*r.Signature); err != nil {
			return staker.Outcome{}, err
		}
	}
	if r.Error != nil {
		o.Err = errors.New(*r.Error)
	}
	return o, nil
}
