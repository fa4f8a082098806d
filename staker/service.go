package staker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/screwyprof/jupstaker/pkg/clock"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPacing sets the delay between two accounts
func WithPacing(d time.Duration) Option {
	return func(s *Service) { s.pacing = d }
}

// WithStartupDelay sets the delay before the first account is processed
func WithStartupDelay(d time.Duration) Option {
	return func(s *Service) { s.startupDelay = d }
}

// WithFeePayer makes key pay fees for every transaction instead of each account
func WithFeePayer(key solana.PrivateKey) Option {
	return func(s *Service) { s.feePayer = key }
}

// WithRand sets the random source used for ranged amounts
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithJournal records every outcome in j
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// Service stakes for a list of accounts strictly one after another
// -----------------------------------------------------------------
type Service struct {
	ledger       Ledger
	network      Network
	policy       AmountPolicy
	resolver     *EscrowResolver
	composer     *Composer
	clock        Clock
	rng          *rand.Rand
	feePayer     solana.PrivateKey
	journal      Journal
	pacing       time.Duration
	startupDelay time.Duration
}

// NewService constructs a Service with required dependencies and options
// ---------------------------------------------------------------------
// By default, it uses a real clock, 5s pacing, no startup delay and no fee payer.
func NewService(ledger Ledger, network Network, policy AmountPolicy, opts ...Option) *Service {
	s := &Service{
		ledger:       ledger,
		network:      network,
		policy:       policy,
		resolver:     NewEscrowResolver(network, ledger),
		composer:     NewComposer(network),
		clock:        clock.SystemClock{},
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		pacing:       DefaultPacing,
		startupDelay: DefaultStartupDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the batch in the background and returns the events channel and done channel.
//
// Events must be drained (see NewSubscriber) or the batch stalls. The events channel
// is closed when the batch finishes, right before done.
// Cancelling ctx stops the batch before the next account; BatchDone is still emitted.
func (s *Service) Start(ctx context.Context, accounts []solana.PrivateKey) (<-chan Event, <-chan struct{}) {
	events := make(chan Event, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		s.run(ctx, accounts, func(e Event) { events <- e })
	}()
	return events, done
}

// Run processes the batch synchronously and returns its report
func (s *Service) Run(ctx context.Context, accounts []solana.PrivateKey) Report {
	return s.run(ctx, accounts, func(Event) {})
}

// run iterates accounts sequentially, pacing between them
// -------------------------------------------------------
func (s *Service) run(ctx context.Context, accounts []solana.PrivateKey, emit func(Event)) Report {
	report := Report{
		BatchID:   uuid.New(),
		StartedAt: s.clock.Now(),
		Total:     len(accounts),
	}

	emit(BatchStarted{
		BatchID:   report.BatchID,
		StartedAt: report.StartedAt,
		Accounts:  len(accounts),
	})

	delay := s.startupDelay
	for i, account := range accounts {
		if i > 0 {
			delay = s.pacing
		}
		if err := clock.Wait(ctx, s.clock, delay); err != nil {
			break
		}

		emit(AccountStarted{Index: i, Owner: account.PublicKey()})

		outcome := s.stake(ctx, i, account)
		report.Outcomes = append(report.Outcomes, outcome)

		if s.journal != nil {
			if err := s.journal.SaveOutcome(ctx, report.BatchID, outcome); err != nil {
				emit(JournalError{Owner: outcome.Owner, Err: err})
			}
		}

		if outcome.Succeeded() {
			emit(StakeSubmitted{Outcome: outcome})
		} else {
			emit(StakeFailed{Outcome: outcome})
		}
	}

	report.Duration = s.clock.Now().Sub(report.StartedAt)
	emit(BatchDone{Report: report})

	return report
}

// stake drives one account through
// AmountResolved -> TransactionBuilt -> BlockhashAttached -> Signed -> Submitted.
// Any error stops the pipeline and is returned inside the outcome.
func (s *Service) stake(ctx context.Context, index int, account solana.PrivateKey) Outcome {
	owner := account.PublicKey()
	outcome := Outcome{Index: index, Owner: owner, Stage: StagePending}

	fail := func(err error) Outcome {
		outcome.FailedAt = outcome.Stage
		outcome.Stage = StageFailed
		outcome.Err = err
		return outcome
	}

	amount, err := s.policy.Resolve(s.network, s.rng)
	if err != nil {
		return fail(err)
	}
	outcome.Amount = amount
	outcome.Stage = StageAmountResolved

	state, err := s.resolver.Resolve(ctx, owner)
	if err != nil {
		return fail(err)
	}

	draft, err := s.composer.Compose(state, outcome.Amount)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrCompose, err))
	}
	outcome.Stage = StageTransactionBuilt

	blockhash, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrBlockhash, err))
	}

	signers := s.signers(account)
	tx, err := draft.Seal(blockhash, signers[0].PublicKey())
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrCompose, err))
	}
	outcome.Stage = StageBlockhashAttached

	if _, err := tx.Sign(keyGetter(signers)); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrSign, err))
	}
	outcome.Stage = StageSigned

	raw, err := tx.MarshalBinary()
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrSubmit, err))
	}

	sig, err := s.ledger.SendRawTransaction(ctx, raw, true)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrSubmit, err))
	}

	outcome.Signature = sig
	outcome.Stage = StageSubmitted
	return outcome
}

// signers returns the signing keys with the fee payer first
func (s *Service) signers(account solana.PrivateKey) []solana.PrivateKey {
	if len(s.feePayer) == 0 {
		return []solana.PrivateKey{account}
	}
	return []solana.PrivateKey{s.feePayer, account}
}

func keyGetter(keys []solana.PrivateKey) func(solana.PublicKey) *solana.PrivateKey {
	return func(pub solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pub) {
				return &keys[i]
			}
		}
		return nil
	}
}
