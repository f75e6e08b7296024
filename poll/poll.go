package poll

import (
	"fmt"
	"sync"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/voting-contract/contracts/voting/votingconst"
)

// State is an enumeration of poll states.
type State int

// Poll states, values are shared with the Voting contract.
const (
	StateOpen   = State(votingconst.Open)
	StateClosed = State(votingconst.Closed)
)

// String implements fmt.Stringer.
func (x State) String() string {
	switch x {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(x))
	}
}

// Config groups immutable parameters of the poll fixed at creation.
type Config struct {
	// Account allowed to close the poll before the deadline and to withdraw
	// collected payments. Zero value means the creator.
	Owner util.Uint160

	// Identifiers eligible to receive votes. Must be non-empty and unique.
	Options []string

	// Minimum payment required to cast a vote, in GAS fractions.
	EntranceFee int64

	// Period the poll remains open since creation. The Voting contract
	// measures it in whole seconds, so it must be a positive number of
	// seconds.
	Interval time.Duration
}

// Validate checks that Config can be used to create a poll. All errors wrap
// ErrInvalidConfiguration.
func (x Config) Validate() error {
	if len(x.Options) == 0 {
		return fmt.Errorf("%w: no options", ErrInvalidConfiguration)
	}

	seen := make(map[string]struct{}, len(x.Options))
	for i := range x.Options {
		if x.Options[i] == "" {
			return fmt.Errorf("%w: empty option #%d", ErrInvalidConfiguration, i)
		}

		if _, ok := seen[x.Options[i]]; ok {
			return fmt.Errorf("%w: duplicated option '%s'", ErrInvalidConfiguration, x.Options[i])
		}

		seen[x.Options[i]] = struct{}{}
	}

	if x.EntranceFee < 0 {
		return fmt.Errorf("%w: negative entrance fee %d", ErrInvalidConfiguration, x.EntranceFee)
	}

	if x.Interval < time.Second {
		return fmt.Errorf("%w: interval %s is less than a second", ErrInvalidConfiguration, x.Interval)
	}

	if x.Interval%time.Second != 0 {
		return fmt.Errorf("%w: interval %s is not a whole number of seconds", ErrInvalidConfiguration, x.Interval)
	}

	return nil
}

// Poll is a single voting poll. Each method is applied atomically: it either
// commits fully or fails leaving the Poll unchanged (except for the lazy
// close described in CastVote).
//
// Poll instances must be constructed using Create or Restore.
type Poll struct {
	mtx sync.RWMutex

	owner       util.Uint160
	options     []string
	entranceFee int64
	interval    time.Duration
	deadline    time.Time

	state     State
	votes     map[util.Uint160]string
	tally     map[string]int64
	collected int64
	withdrawn int64
}

// Create opens a new poll at the given time. Deadline is now + cfg.Interval.
// If cfg.Owner is zero, creator becomes the owner.
func Create(cfg Config, creator util.Uint160, now time.Time) (*Poll, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Poll{
		owner:       cfg.Owner,
		options:     append([]string(nil), cfg.Options...),
		entranceFee: cfg.EntranceFee,
		interval:    cfg.Interval,
		deadline:    now.Add(cfg.Interval),
		state:       StateOpen,
		votes:       make(map[util.Uint160]string),
		tally:       make(map[string]int64, len(cfg.Options)),
	}

	if p.owner.Equals(util.Uint160{}) {
		p.owner = creator
	}

	for i := range p.options {
		p.tally[p.options[i]] = 0
	}

	return p, nil
}

// CastVote records the voter's choice and captures the payment.
//
// Checks are made in the following order: poll is open and now is before
// the deadline (ErrPollClosed), payment covers the entrance fee
// (ErrInsufficientPayment), option is known (ErrInvalidOption), voter has not
// voted yet (ErrDuplicateVote).
//
// The first CastVote observing the elapsed deadline closes the poll and
// fails with ErrPollClosed.
func (p *Poll) CastVote(now time.Time, voter util.Uint160, option string, payment int64) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.state == StateClosed {
		return ErrPollClosed
	}

	if !now.Before(p.deadline) {
		p.state = StateClosed
		return ErrPollClosed
	}

	if payment < p.entranceFee {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientPayment, payment, p.entranceFee)
	}

	if _, ok := p.tally[option]; !ok {
		return fmt.Errorf("%w '%s'", ErrInvalidOption, option)
	}

	if _, ok := p.votes[voter]; ok {
		return ErrDuplicateVote
	}

	p.votes[voter] = option
	p.tally[option]++
	p.collected += payment

	return nil
}

// Close closes the poll. Anyone can close it once the deadline has passed,
// the owner can also close it earlier. Closing a closed poll is a no-op.
func (p *Poll) Close(now time.Time, caller util.Uint160) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.state == StateClosed {
		return nil
	}

	if now.Before(p.deadline) && !caller.Equals(p.owner) {
		return ErrCloseForbidden
	}

	p.state = StateClosed

	return nil
}

// Withdraw hands out all payments collected since the last withdrawal to the
// owner and returns their amount. It is allowed only after the poll is closed
// (explicitly or by the deadline).
func (p *Poll) Withdraw(now time.Time, caller util.Uint160) (int64, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if !caller.Equals(p.owner) {
		return 0, ErrWithdrawForbidden
	}

	if p.state != StateClosed && now.Before(p.deadline) {
		return 0, ErrPollOpen
	}

	amount := p.collected - p.withdrawn
	p.withdrawn = p.collected

	return amount, nil
}

// State returns the current poll state.
func (p *Poll) State() State {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.state
}

// StateAt returns the poll state observed at the given time, treating the
// elapsed deadline as closing. This is how the Voting contract reports it.
func (p *Poll) StateAt(now time.Time) State {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	if p.state == StateClosed || !now.Before(p.deadline) {
		return StateClosed
	}

	return StateOpen
}

// Deadline returns the moment since which no votes are accepted.
func (p *Poll) Deadline() time.Time {
	return p.deadline
}

// EntranceFee returns the minimum payment for a vote.
func (p *Poll) EntranceFee() int64 {
	return p.entranceFee
}

// Interval returns the period the poll is open for.
func (p *Poll) Interval() time.Duration {
	return p.interval
}

// Owner returns the poll owner.
func (p *Poll) Owner() util.Uint160 {
	return p.owner
}

// Options returns the options in creation order.
func (p *Poll) Options() []string {
	return append([]string(nil), p.options...)
}

// Tally returns the number of votes per option. All options are present.
func (p *Poll) Tally() map[string]int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	res := make(map[string]int64, len(p.tally))
	for k, v := range p.tally {
		res[k] = v
	}

	return res
}

// VoteOf returns the option chosen by the voter, if any.
func (p *Poll) VoteOf(voter util.Uint160) (string, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	opt, ok := p.votes[voter]
	return opt, ok
}

// TotalVotes returns the number of distinct voters.
func (p *Poll) TotalVotes() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return len(p.votes)
}

// Collected returns the sum of all captured payments.
func (p *Poll) Collected() int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.collected
}

// Withdrawn returns the part of collected payments already handed out to
// the owner.
func (p *Poll) Withdrawn() int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.withdrawn
}
