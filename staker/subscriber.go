package staker

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                  chan struct{}
	batchStartedHandler   func(BatchStarted)
	accountStartedHandler func(AccountStarted)
	submittedHandler      func(StakeSubmitted)
	failedHandler         func(StakeFailed)
	journalErrorHandler   func(JournalError)
	batchDoneHandler      func(BatchDone)
}

// OnBatchStarted sets the handler for BatchStarted events
func OnBatchStarted(fn func(BatchStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.batchStartedHandler = fn }
}

// OnAccountStarted sets the handler for AccountStarted events
func OnAccountStarted(fn func(AccountStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.accountStartedHandler = fn }
}

// OnStakeSubmitted sets the handler for StakeSubmitted events
func OnStakeSubmitted(fn func(StakeSubmitted)) func(*Subscriber) {
	return func(s *Subscriber) { s.submittedHandler = fn }
}

// OnStakeFailed sets the handler for StakeFailed events
func OnStakeFailed(fn func(StakeFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.failedHandler = fn }
}

// OnJournalError sets the handler for JournalError events
func OnJournalError(fn func(JournalError)) func(*Subscriber) {
	return func(s *Subscriber) { s.journalErrorHandler = fn }
}

// OnBatchDone sets the handler for BatchDone events
func OnBatchDone(fn func(BatchDone)) func(*Subscriber) {
	return func(s *Subscriber) { s.batchDoneHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := staker.NewSubscriber(events,
//	  staker.OnStakeFailed(func(e staker.StakeFailed) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                  make(chan struct{}),
		batchStartedHandler:   func(BatchStarted) {},   // nop by default
		accountStartedHandler: func(AccountStarted) {}, // nop by default
		submittedHandler:      func(StakeSubmitted) {}, // nop by default
		failedHandler:         func(StakeFailed) {},    // nop by default
		journalErrorHandler:   func(JournalError) {},   // nop by default
		batchDoneHandler:      func(BatchDone) {},      // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case BatchStarted:
				s.batchStartedHandler(e)
			case AccountStarted:
				s.accountStartedHandler(e)
			case StakeSubmitted:
				s.submittedHandler(e)
			case StakeFailed:
				s.failedHandler(e)
			case JournalError:
				s.journalErrorHandler(e)
			case BatchDone:
				s.batchDoneHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
