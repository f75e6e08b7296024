package deploy

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/voting-contract/poll"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testStateGetter struct {
	err     error
	request util.Uint160
}

func (x *testStateGetter) GetContractStateByHash(addr util.Uint160) (*state.Contract, error) {
	x.request = addr
	if x.err != nil {
		return nil, x.err
	}
	return &state.Contract{ContractBase: state.ContractBase{Hash: addr}}, nil
}

type testPollReader struct {
	err         error
	owner       util.Uint160
	options     []string
	entranceFee int64
	interval    int64
}

func (x *testPollReader) Owner() (util.Uint160, error) {
	return x.owner, x.err
}

func (x *testPollReader) Options() ([]string, error) {
	return x.options, x.err
}

func (x *testPollReader) EntranceFee() (*big.Int, error) {
	return big.NewInt(x.entranceFee), x.err
}

func (x *testPollReader) Interval() (*big.Int, error) {
	return big.NewInt(x.interval), x.err
}

type testDeployer struct {
	err  error
	data any
	sent int
}

func (x *testDeployer) Deploy(_ *nef.File, _ *manifest.Manifest, data any) (util.Uint256, uint32, error) {
	if x.err != nil {
		return util.Uint256{}, 0, x.err
	}
	x.sent++
	x.data = data
	return util.Uint256{1, 2, 3}, 100, nil
}

type testWaiter struct {
	block chan struct{}
	err   error
	state vmstate.State
	exc   string
}

func (x *testWaiter) Wait(util.Uint256, uint32, error) (*state.AppExecResult, error) {
	if x.block != nil {
		<-x.block
	}
	if x.err != nil {
		return nil, x.err
	}
	return &state.AppExecResult{Execution: state.Execution{
		VMState:        x.state,
		FaultException: x.exc,
	}}, nil
}

func testDeployPrm(t *testing.T) (deployPollPrm, *testStateGetter, *testDeployer, *testWaiter, *testPollReader) {
	getter := &testStateGetter{err: errors.New("Unknown contract")}
	deployer := new(testDeployer)
	waiter := &testWaiter{state: vmstate.Halt}
	reader := &testPollReader{
		owner:       util.Uint160{9, 9, 9},
		options:     []string{"A", "B"},
		entranceFee: 100,
		interval:    3600,
	}

	ctr, err := nef.NewFile(make([]byte, 32))
	require.NoError(t, err)

	return deployPollPrm{
		logger:     zaptest.NewLogger(t),
		blockchain: getter,
		sender:     util.Uint160{9, 9, 9},
		deployer:   deployer,
		reader:     func(util.Uint160) pollReader { return reader },
		waiter:     waiter,
		contract: CommonDeployPrm{
			NEF:      *ctr,
			Manifest: *manifest.NewManifest("Voting"),
		},
		poll: poll.Config{
			Options:     []string{"A", "B"},
			EntranceFee: 100,
			Interval:    time.Hour,
		},
	}, getter, deployer, waiter, reader
}

func TestData(t *testing.T) {
	cfg := poll.Config{
		Options:     []string{"A", "B"},
		EntranceFee: 100,
		Interval:    90 * time.Minute,
	}

	require.Equal(t, []any{nil, []any{"A", "B"}, int64(100), int64(5400)}, Data(cfg))

	cfg.Owner = util.Uint160{1}
	require.Equal(t, []any{util.Uint160{1}, []any{"A", "B"}, int64(100), int64(5400)}, Data(cfg))
}

func TestDeployPoll(t *testing.T) {
	prm, getter, deployer, _, reader := testDeployPrm(t)

	expected := state.CreateContractHash(prm.sender, prm.contract.NEF.Checksum, "Voting")

	addr, err := deployPoll(context.Background(), prm)
	require.NoError(t, err)
	require.Equal(t, expected, addr)
	require.Equal(t, expected, getter.request)
	require.Equal(t, 1, deployer.sent)
	require.Equal(t, Data(prm.poll), deployer.data)

	t.Run("already deployed", func(t *testing.T) {
		getter.err = nil

		addr, err := deployPoll(context.Background(), prm)
		require.NoError(t, err)
		require.Equal(t, expected, addr)
		require.Equal(t, 1, deployer.sent)

		prm.poll.Owner = prm.sender

		_, err = deployPoll(context.Background(), prm)
		require.NoError(t, err)
	})

	t.Run("another poll deployed", func(t *testing.T) {
		getter.err = nil

		for name, cfg := range map[string]poll.Config{
			"owner":        {Owner: util.Uint160{1}, Options: []string{"A", "B"}, EntranceFee: 100, Interval: time.Hour},
			"options":      {Options: []string{"A", "C"}, EntranceFee: 100, Interval: time.Hour},
			"option order": {Options: []string{"B", "A"}, EntranceFee: 100, Interval: time.Hour},
			"entrance fee": {Options: []string{"A", "B"}, EntranceFee: 101, Interval: time.Hour},
			"interval":     {Options: []string{"A", "B"}, EntranceFee: 100, Interval: 2 * time.Hour},
		} {
			t.Run(name, func(t *testing.T) {
				prm := prm
				prm.poll = cfg

				_, err := deployPoll(context.Background(), prm)
				require.ErrorIs(t, err, ErrPollMismatch)
				require.Equal(t, 1, deployer.sent)
			})
		}

		reader.err = errors.New("connection refused")

		_, err := deployPoll(context.Background(), prm)
		require.ErrorIs(t, err, reader.err)
	})
}

func TestDeployPollFailures(t *testing.T) {
	t.Run("state request", func(t *testing.T) {
		prm, getter, deployer, _, _ := testDeployPrm(t)
		getter.err = errors.New("connection refused")

		_, err := deployPoll(context.Background(), prm)
		require.Error(t, err)
		require.Zero(t, deployer.sent)
	})

	t.Run("send", func(t *testing.T) {
		prm, _, deployer, _, _ := testDeployPrm(t)
		deployer.err = errors.New("insufficient funds")

		_, err := deployPoll(context.Background(), prm)
		require.ErrorIs(t, err, deployer.err)
	})

	t.Run("wait", func(t *testing.T) {
		prm, _, _, waiter, _ := testDeployPrm(t)
		waiter.err = errors.New("transaction expired")

		_, err := deployPoll(context.Background(), prm)
		require.ErrorIs(t, err, waiter.err)
	})

	t.Run("fault", func(t *testing.T) {
		prm, _, _, waiter, _ := testDeployPrm(t)
		waiter.state = vmstate.Fault
		waiter.exc = "unhandled exception: \"invalid configuration: duplicated option A\""

		_, err := deployPoll(context.Background(), prm)
		require.ErrorIs(t, err, poll.ErrInvalidConfiguration)
	})

	t.Run("context", func(t *testing.T) {
		prm, _, deployer, waiter, _ := testDeployPrm(t)
		waiter.block = make(chan struct{})
		t.Cleanup(func() { close(waiter.block) })

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := deployPoll(ctx, prm)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 1, deployer.sent)

		ctx, cancel = context.WithCancel(context.Background())
		cancel()

		_, err = deployPoll(ctx, prm)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1, deployer.sent)
	})
}

func TestDeployInvalidConfig(t *testing.T) {
	for _, cfg := range []poll.Config{
		{Interval: time.Hour},
		{Options: []string{"A"}, Interval: 1500 * time.Millisecond},
	} {
		_, err := Deploy(context.Background(), Prm{
			Logger: zaptest.NewLogger(t),
			Poll:   cfg,
		})
		require.ErrorIs(t, err, poll.ErrInvalidConfiguration)
	}
}
