package staker_test

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/jupstaker/staker"
)

var (
	computeBudgetProgram   = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	associatedTokenProgram = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// Test data helpers

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// testNetwork swaps in a throwaway locker so tests never depend on mainnet ids
func testNetwork(t *testing.T) staker.Network {
	t.Helper()
	n := staker.Mainnet()
	n.Locker = newKey(t).PublicKey()
	return n
}

// decodedTx is a submitted transaction decoded for assertions
type decodedTx struct {
	tx *solana.Transaction
}

func decodeTx(t *testing.T, raw []byte) decodedTx {
	t.Helper()
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	return decodedTx{tx: tx}
}

func (d decodedTx) feePayer() solana.PublicKey {
	return d.tx.Message.AccountKeys[0]
}

func (d decodedTx) signers() []solana.PublicKey {
	n := int(d.tx.Message.Header.NumRequiredSignatures)
	return append([]solana.PublicKey(nil), d.tx.Message.AccountKeys[:n]...)
}

func (d decodedTx) programs() []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(d.tx.Message.Instructions))
	for _, ix := range d.tx.Message.Instructions {
		out = append(out, d.tx.Message.AccountKeys[ix.ProgramIDIndex])
	}
	return out
}

func (d decodedTx) stakeAmount(t *testing.T) uint64 {
	t.Helper()
	ixs := d.tx.Message.Instructions
	require.NotEmpty(t, ixs)
	data := ixs[len(ixs)-1].Data
	require.Len(t, data, 16, "Stake instruction should carry discriminator and u64 amount")
	return binary.LittleEndian.Uint64(data[8:])
}

// assertValidSignatures checks every required signature against the message
func (d decodedTx) assertValidSignatures(t *testing.T) {
	t.Helper()
	msg, err := d.tx.Message.MarshalBinary()
	require.NoError(t, err)

	signers := d.signers()
	require.Len(t, d.tx.Signatures, len(signers))
	for i, signer := range signers {
		require.True(t, d.tx.Signatures[i].Verify(signer, msg), "Signature %d should verify for %s", i, signer)
	}
}

// Mock implementations

// fakeLedger implements staker.Ledger in memory
type fakeLedger struct {
	mu sync.Mutex

	existing    map[solana.PublicKey]bool
	lookups     []solana.PublicKey
	blockhashN  int
	blockhashes []solana.Hash
	submitted   [][]byte
	preflight   []bool

	lookupErr    error
	blockhashErr error
	sendErrFor   map[int]error // keyed by submission attempt, zero based
	sendAttempts int
}

func newFakeLedger(existing ...solana.PublicKey) *fakeLedger {
	l := &fakeLedger{existing: map[solana.PublicKey]bool{}, sendErrFor: map[int]error{}}
	for _, pk := range existing {
		l.existing[pk] = true
	}
	return l
}

func (l *fakeLedger) AccountExists(_ context.Context, address solana.PublicKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookups = append(l.lookups, address)
	if l.lookupErr != nil {
		return false, l.lookupErr
	}
	return l.existing[address], nil
}

func (l *fakeLedger) LatestBlockhash(_ context.Context) (solana.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.blockhashErr != nil {
		return solana.Hash{}, l.blockhashErr
	}
	l.blockhashN++
	var h solana.Hash
	binary.LittleEndian.PutUint64(h[:], uint64(l.blockhashN))
	l.blockhashes = append(l.blockhashes, h)
	return h, nil
}

func (l *fakeLedger) SendRawTransaction(_ context.Context, rawTx []byte, skipPreflight bool) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	attempt := l.sendAttempts
	l.sendAttempts++
	if err, ok := l.sendErrFor[attempt]; ok {
		return solana.Signature{}, err
	}
	l.submitted = append(l.submitted, rawTx)
	l.preflight = append(l.preflight, skipPreflight)

	var sig solana.Signature
	copy(sig[:], rawTx[1:65]) // first signature of the wire format
	return sig, nil
}

func (l *fakeLedger) submissions() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.submitted...)
}

func (l *fakeLedger) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lookups) + l.blockhashN + l.sendAttempts
}

// instantClock fires every timer immediately and records the requested delays
type instantClock struct {
	mu        sync.Mutex
	requested []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.requested = append(c.requested, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return ch
}

func (c *instantClock) Now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (c *instantClock) delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.requested...)
}

// gatedClock blocks every timer until the test ticks it
type gatedClock struct {
	requests chan time.Duration
	tick     chan time.Time
}

func newGatedClock() *gatedClock {
	return &gatedClock{requests: make(chan time.Duration, 10), tick: make(chan time.Time)}
}

func (c *gatedClock) After(d time.Duration) <-chan time.Time {
	c.requests <- d
	return c.tick
}

func (c *gatedClock) Now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// memoryJournal implements staker.Journal in memory
type memoryJournal struct {
	mu       sync.Mutex
	err      error
	outcomes map[uuid.UUID][]staker.Outcome
}

func newMemoryJournal() *memoryJournal {
	return &memoryJournal{outcomes: map[uuid.UUID][]staker.Outcome{}}
}

func (j *memoryJournal) SaveOutcome(_ context.Context, batchID uuid.UUID, outcome staker.Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.outcomes[batchID] = append(j.outcomes[batchID], outcome)
	return nil
}

var errRPCDown = errors.New("rpc down")
