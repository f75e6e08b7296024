package poll

import (
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Snapshot is a complete copy of the poll record. It is used to move poll
// data between the Voting contract, state dumps and Poll instances.
type Snapshot struct {
	Owner       util.Uint160
	Options     []string
	EntranceFee int64
	Interval    time.Duration
	Deadline    time.Time

	State     State
	Votes     map[util.Uint160]string
	Tally     map[string]int64
	Collected int64
	Withdrawn int64
}

// Snapshot returns a deep copy of the poll record.
func (p *Poll) Snapshot() Snapshot {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	res := Snapshot{
		Owner:       p.owner,
		Options:     append([]string(nil), p.options...),
		EntranceFee: p.entranceFee,
		Interval:    p.interval,
		Deadline:    p.deadline,
		State:       p.state,
		Votes:       make(map[util.Uint160]string, len(p.votes)),
		Tally:       make(map[string]int64, len(p.tally)),
		Collected:   p.collected,
		Withdrawn:   p.withdrawn,
	}

	for k, v := range p.votes {
		res.Votes[k] = v
	}

	for k, v := range p.tally {
		res.Tally[k] = v
	}

	return res
}

// Restore constructs Poll from the Snapshot. Restore fails with
// ErrCorruptedSnapshot if tally is inconsistent with the votes or votes
// refer to unknown options.
func Restore(s Snapshot) (*Poll, error) {
	err := Config{
		Owner:       s.Owner,
		Options:     s.Options,
		EntranceFee: s.EntranceFee,
		Interval:    s.Interval,
	}.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedSnapshot, err)
	}

	if s.State != StateOpen && s.State != StateClosed {
		return nil, fmt.Errorf("%w: invalid state %s", ErrCorruptedSnapshot, s.State)
	}

	if s.Withdrawn > s.Collected {
		return nil, fmt.Errorf("%w: withdrawn %d exceeds collected %d", ErrCorruptedSnapshot, s.Withdrawn, s.Collected)
	}

	p := &Poll{
		owner:       s.Owner,
		options:     append([]string(nil), s.Options...),
		entranceFee: s.EntranceFee,
		interval:    s.Interval,
		deadline:    s.Deadline,
		state:       s.State,
		votes:       make(map[util.Uint160]string, len(s.Votes)),
		tally:       make(map[string]int64, len(s.Options)),
		collected:   s.Collected,
		withdrawn:   s.Withdrawn,
	}

	for i := range p.options {
		p.tally[p.options[i]] = 0
	}

	for voter, opt := range s.Votes {
		if _, ok := p.tally[opt]; !ok {
			return nil, fmt.Errorf("%w: vote of %s for unknown option '%s'", ErrCorruptedSnapshot, voter.StringLE(), opt)
		}

		p.votes[voter] = opt
		p.tally[opt]++
	}

	for opt := range s.Tally {
		if _, ok := p.tally[opt]; !ok {
			return nil, fmt.Errorf("%w: tally of unknown option '%s'", ErrCorruptedSnapshot, opt)
		}
	}

	for opt, n := range p.tally {
		if s.Tally[opt] != n {
			return nil, fmt.Errorf("%w: tally of '%s' is %d, votes give %d", ErrCorruptedSnapshot, opt, s.Tally[opt], n)
		}
	}

	return p, nil
}
