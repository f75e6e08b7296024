package voting

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/voting-contract/poll"
	"github.com/stretchr/testify/require"
)

type testInv struct {
	err error
	res map[string]*result.Invoke

	expanded int
}

func halt(items ...stackitem.Item) *result.Invoke {
	return &result.Invoke{State: "HALT", Stack: items}
}

func (t *testInv) Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	if t.err != nil {
		return nil, t.err
	}

	res, ok := t.res[operation]
	if !ok {
		return nil, errors.New("unexpected operation " + operation)
	}

	return res, nil
}

func (t *testInv) CallAndExpandIterator(contract util.Uint160, operation string, i int, params ...any) (*result.Invoke, error) {
	t.expanded = i
	return t.Call(contract, operation, params...)
}

func (t *testInv) TraverseIterator(uuid.UUID, *result.Iterator, int) ([]stackitem.Item, error) {
	return nil, nil
}

func (t *testInv) TerminateSession(uuid.UUID) error {
	return nil
}

type testAct struct {
	testInv

	sender util.Uint160
	script []byte
}

func (t *testAct) Sender() util.Uint160 {
	return t.sender
}

func (t *testAct) MakeCall(util.Uint160, string, ...any) (*transaction.Transaction, error) {
	return nil, errors.New("not implemented")
}

func (t *testAct) MakeRun(script []byte) (*transaction.Transaction, error) {
	t.script = script
	return transaction.New(script, 0), nil
}

func (t *testAct) MakeUnsignedCall(util.Uint160, string, []transaction.Attribute, ...any) (*transaction.Transaction, error) {
	return nil, errors.New("not implemented")
}

func (t *testAct) MakeUnsignedRun(script []byte, _ []transaction.Attribute) (*transaction.Transaction, error) {
	t.script = script
	return transaction.New(script, 0), nil
}

func (t *testAct) SendCall(util.Uint160, string, ...any) (util.Uint256, uint32, error) {
	return util.Uint256{}, 0, errors.New("not implemented")
}

func (t *testAct) SendRun(script []byte) (util.Uint256, uint32, error) {
	t.script = script
	return util.Uint256{1}, 100, nil
}

func TestContractReader_Snapshot(t *testing.T) {
	var (
		owner  = util.Uint160{1, 2, 3}
		voter1 = util.Uint160{4, 5, 6}
		voter2 = util.Uint160{7, 8, 9}
	)

	ti := &testInv{res: map[string]*result.Invoke{
		"owner":       halt(stackitem.Make(owner.BytesBE())),
		"options":     halt(stackitem.Make([]stackitem.Item{stackitem.Make("A"), stackitem.Make("B")})),
		"entranceFee": halt(stackitem.Make(100)),
		"collected":   halt(stackitem.Make(250)),
		"withdrawn":   halt(stackitem.Make(0)),
		"interval":    halt(stackitem.Make(3600)),
		"deadline":    halt(stackitem.Make(1_700_003_600_000)),
		"state":       halt(stackitem.Make(int(poll.StateOpen))),
		"tally": halt(stackitem.NewMapWithValue([]stackitem.MapElement{
			{Key: stackitem.Make("A"), Value: stackitem.Make(1)},
			{Key: stackitem.Make("B"), Value: stackitem.Make(1)},
		})),
		"voters": halt(stackitem.Make([]stackitem.Item{
			stackitem.NewStruct([]stackitem.Item{stackitem.Make(voter1.BytesBE()), stackitem.Make("A")}),
			stackitem.NewStruct([]stackitem.Item{stackitem.Make(voter2.BytesBE()), stackitem.Make("B")}),
		})),
	}}

	s, err := NewReader(ti, util.Uint160{0xff}).Snapshot(10)
	require.NoError(t, err)
	require.Equal(t, 10, ti.expanded)

	require.Equal(t, owner, s.Owner)
	require.Equal(t, []string{"A", "B"}, s.Options)
	require.EqualValues(t, 100, s.EntranceFee)
	require.EqualValues(t, 250, s.Collected)
	require.Equal(t, time.Hour, s.Interval)
	require.Equal(t, time.UnixMilli(1_700_003_600_000), s.Deadline)
	require.Equal(t, poll.StateOpen, s.State)
	require.Equal(t, map[string]int64{"A": 1, "B": 1}, s.Tally)
	require.Equal(t, map[util.Uint160]string{voter1: "A", voter2: "B"}, s.Votes)

	p, err := poll.Restore(*s)
	require.NoError(t, err)
	require.Equal(t, 2, p.TotalVotes())

	t.Run("invalid tally", func(t *testing.T) {
		ti.res["tally"] = halt(stackitem.Make(1))
		_, err := NewReader(ti, util.Uint160{0xff}).Snapshot(10)
		require.Error(t, err)
	})

	t.Run("call error", func(t *testing.T) {
		ti.err = errors.New("bad")
		_, err := NewReader(ti, util.Uint160{0xff}).Snapshot(10)
		require.Error(t, err)
	})
}

func TestContractReader_VoteOf(t *testing.T) {
	ti := &testInv{res: map[string]*result.Invoke{
		"voteOf": halt(stackitem.Make("")),
	}}
	r := NewReader(ti, util.Uint160{0xff})

	opt, err := r.VoteOf(util.Uint160{1})
	require.NoError(t, err)
	require.Empty(t, opt)

	ti.res["voteOf"] = halt(stackitem.Make("B"))
	opt, err = r.VoteOf(util.Uint160{1})
	require.NoError(t, err)
	require.Equal(t, "B", opt)

	ti.res["voteOf"] = &result.Invoke{State: "FAULT", FaultException: "bad"}
	_, err = r.VoteOf(util.Uint160{1})
	require.Error(t, err)
}

func TestVotesFromStackItems(t *testing.T) {
	_, err := VotesFromStackItems([]stackitem.Item{stackitem.Make(1)})
	require.Error(t, err)

	_, err = VotesFromStackItems([]stackitem.Item{
		stackitem.NewStruct([]stackitem.Item{stackitem.Make([]byte{1, 2}), stackitem.Make("A")}),
	})
	require.Error(t, err)

	_, err = VotesFromStackItems([]stackitem.Item{
		stackitem.NewStruct([]stackitem.Item{stackitem.Make(util.Uint160{}.BytesBE()), stackitem.Make([]byte{0xff})}),
	})
	require.Error(t, err)

	res, err := VotesFromStackItems(nil)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestContract_Vote(t *testing.T) {
	ta := &testAct{sender: util.Uint160{1, 2, 3}}
	c := New(ta, util.Uint160{0xff})

	h, vub, err := c.Vote("option-A", big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, util.Uint256{1}, h)
	require.EqualValues(t, 100, vub)
	require.True(t, bytes.Contains(ta.script, []byte("option-A")))
	require.True(t, bytes.Contains(ta.script, []byte("transfer")))

	ta.script = nil
	tx, err := c.VoteUnsigned("option-B", big.NewInt(100))
	require.NoError(t, err)
	require.True(t, bytes.Contains(tx.Script, []byte("option-B")))
}

func TestEvents(t *testing.T) {
	voter := util.Uint160{1, 2, 3}

	log := &result.ApplicationLog{
		Executions: []state.Execution{{
			Events: []state.NotificationEvent{
				{Name: "Transfer", Item: stackitem.NewArray([]stackitem.Item{})},
				{Name: "Vote", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Make(voter.BytesBE()), stackitem.Make("A"), stackitem.Make(100),
				})},
				{Name: "Close", Item: stackitem.NewArray([]stackitem.Item{stackitem.Make(42)})},
				{Name: "Withdraw", Item: stackitem.NewArray([]stackitem.Item{
					stackitem.Make(voter.BytesBE()), stackitem.Make(100),
				})},
			},
		}},
	}

	votes, err := VoteEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.Equal(t, voter, votes[0].Voter)
	require.Equal(t, "A", votes[0].Option)
	require.EqualValues(t, 100, votes[0].Amount.Int64())

	closes, err := CloseEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, closes, 1)
	require.EqualValues(t, 42, closes[0].Time.Int64())

	withdrawals, err := WithdrawEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	require.Equal(t, voter, withdrawals[0].To)
	require.EqualValues(t, 100, withdrawals[0].Amount.Int64())

	_, err = VoteEventsFromApplicationLog(nil)
	require.Error(t, err)

	log.Executions[0].Events[1].Item = stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	_, err = VoteEventsFromApplicationLog(log)
	require.Error(t, err)
}

func TestExecutionError(t *testing.T) {
	require.Error(t, ExecutionError(nil))

	res := &state.AppExecResult{Execution: state.Execution{VMState: vmstate.Halt}}
	require.NoError(t, ExecutionError(res))

	res.VMState = vmstate.Fault
	require.Error(t, ExecutionError(res))

	res.FaultException = "at instruction 42 (THROW): unhandled exception: \"duplicate vote\""
	require.ErrorIs(t, ExecutionError(res), poll.ErrDuplicateVote)
}
