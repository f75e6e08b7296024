package voting

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/voting-contract/poll"
)

// Vote creates a transaction casting a vote of the actor's sender for the
// given option. The vote is a transfer of the given amount of GAS to the
// contract with the option as transfer data. This transaction is signed
// and immediately sent to the network. The values returned are its hash,
// ValidUntilBlock value and error if any.
func (c *Contract) Vote(option string, amount *big.Int) (util.Uint256, uint32, error) {
	return gas.New(c.actor).Transfer(c.actor.Sender(), c.hash, amount, option)
}

// VoteTransaction is similar to Vote, but the signed transaction is returned
// to the caller instead of being sent.
func (c *Contract) VoteTransaction(option string, amount *big.Int) (*transaction.Transaction, error) {
	return gas.New(c.actor).TransferTransaction(c.actor.Sender(), c.hash, amount, option)
}

// VoteUnsigned is similar to Vote, but the transaction is neither signed nor
// sent.
func (c *Contract) VoteUnsigned(option string, amount *big.Int) (*transaction.Transaction, error) {
	return gas.New(c.actor).TransferUnsigned(c.actor.Sender(), c.hash, amount, option)
}

// Snapshot reads the complete poll record from the contract. Votes are
// read in a single invocation, so at most maxVoters of them are returned.
// Returned state accounts for the deadline at the time of invocation.
func (c *ContractReader) Snapshot(maxVoters int) (*poll.Snapshot, error) {
	var (
		res poll.Snapshot
		err error
	)

	res.Owner, err = c.Owner()
	if err != nil {
		return nil, fmt.Errorf("read owner: %w", err)
	}

	res.Options, err = c.Options()
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}

	ints := []struct {
		name string
		get  func() (*big.Int, error)
		dst  *int64
	}{
		{"entrance fee", c.EntranceFee, &res.EntranceFee},
		{"collected", c.Collected, &res.Collected},
		{"withdrawn", c.Withdrawn, &res.Withdrawn},
	}

	for i := range ints {
		v, err := ints[i].get()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ints[i].name, err)
		}

		*ints[i].dst = v.Int64()
	}

	interval, err := c.Interval()
	if err != nil {
		return nil, fmt.Errorf("read interval: %w", err)
	}

	res.Interval = time.Duration(interval.Int64()) * time.Second

	deadline, err := c.Deadline()
	if err != nil {
		return nil, fmt.Errorf("read deadline: %w", err)
	}

	res.Deadline = time.UnixMilli(deadline.Int64())

	st, err := c.State()
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	res.State = poll.State(st.Int64())

	tally, err := c.Tally()
	if err != nil {
		return nil, fmt.Errorf("read tally: %w", err)
	}

	res.Tally = make(map[string]int64, len(tally))
	for k, v := range tally {
		res.Tally[k] = v.Int64()
	}

	items, err := c.VotersExpanded(maxVoters)
	if err != nil {
		return nil, fmt.Errorf("read voters: %w", err)
	}

	res.Votes, err = VotesFromStackItems(items)
	if err != nil {
		return nil, fmt.Errorf("read voters: %w", err)
	}

	return &res, nil
}

// VotesFromStackItems decodes items of the `voters` iterator into the map of
// votes.
func VotesFromStackItems(items []stackitem.Item) (map[util.Uint160]string, error) {
	res := make(map[util.Uint160]string, len(items))

	for i := range items {
		kv, ok := items[i].Value().([]stackitem.Item)
		if !ok || len(kv) != 2 {
			return nil, fmt.Errorf("item %d: not a key-value structure", i)
		}

		voter, err := itemToUint160(kv[0])
		if err != nil {
			return nil, fmt.Errorf("item %d: voter: %w", i, err)
		}

		option, err := itemToUTF8String(kv[1])
		if err != nil {
			return nil, fmt.Errorf("item %d: option: %w", i, err)
		}

		res[voter] = option
	}

	return res, nil
}

// ExecutionError returns nil if the transaction was executed successfully.
// Otherwise, it returns an error describing the fault. Exceptions thrown by
// Voting contract are mapped to the errors of the poll package, so they can
// be checked with errors.Is.
func ExecutionError(res *state.AppExecResult) error {
	if res == nil {
		return errors.New("missing execution result")
	}

	if res.VMState.HasFlag(vmstate.Halt) {
		return nil
	}

	if res.FaultException == "" {
		return fmt.Errorf("unexpected VM state %s", res.VMState)
	}

	return poll.FromException(res.FaultException)
}
