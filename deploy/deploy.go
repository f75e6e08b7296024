package deploy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/nspcc-dev/voting-contract/poll"
	"github.com/nspcc-dev/voting-contract/rpc/voting"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the poll deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to the
	// blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// Prm groups all parameters of the poll deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy the poll to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// It pays for the deployment and becomes the poll owner unless
	// Poll.Owner is set.
	LocalAccount *wallet.Account

	// Compiled Voting contract.
	Contract CommonDeployPrm

	// Parameters of the poll.
	Poll poll.Config
}

// Data returns deployment data of Voting contract creating a poll with the
// given configuration. Configuration is expected to be valid.
func Data(cfg poll.Config) []any {
	var owner any
	if !cfg.Owner.Equals(util.Uint160{}) {
		owner = cfg.Owner
	}

	opts := make([]any, len(cfg.Options))
	for i := range cfg.Options {
		opts[i] = cfg.Options[i]
	}

	return []any{owner, opts, cfg.EntranceFee, int64(cfg.Interval / time.Second)}
}

// ErrPollMismatch is returned by Deploy when the contract is already deployed
// by the local account but its poll has other parameters.
var ErrPollMismatch = errors.New("deployed poll differs from the requested one")

// Deploy deploys Voting contract creating a poll with the configuration
// from Prm.Poll and returns the contract address. If the contract is already
// deployed by the local account, Deploy checks that the deployed poll matches
// Prm.Poll (ErrPollMismatch otherwise) and returns its address without sending
// any transactions.
//
// Deploy waits for the deployment transaction to be accepted and fails if
// its execution did not succeed or the context is done first.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	err := prm.Poll.Validate()
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid poll configuration: %w", err)
	}

	act, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	return deployPoll(ctx, deployPollPrm{
		logger:     prm.Logger,
		blockchain: prm.Blockchain,
		sender:     prm.LocalAccount.ScriptHash(),
		deployer:   management.New(act),
		reader: func(addr util.Uint160) pollReader {
			return voting.NewReader(act, addr)
		},
		waiter:     act,
		contract:   prm.Contract,
		poll:       prm.Poll,
	})
}

// contractStateGetter is a subset of Blockchain used to check deployment
// status.
type contractStateGetter interface {
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// contractDeployer sends deployment transactions.
type contractDeployer interface {
	Deploy(exe *nef.File, manif *manifest.Manifest, data any) (util.Uint256, uint32, error)
}

// transactionWaiter awaits transaction acceptance.
type transactionWaiter interface {
	Wait(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error)
}

// pollReader reads parameters of the deployed poll.
type pollReader interface {
	Owner() (util.Uint160, error)
	Options() ([]string, error)
	EntranceFee() (*big.Int, error)
	Interval() (*big.Int, error)
}

type deployPollPrm struct {
	logger     *zap.Logger
	blockchain contractStateGetter
	sender     util.Uint160
	deployer   contractDeployer
	reader     func(util.Uint160) pollReader
	waiter     transactionWaiter
	contract   CommonDeployPrm
	poll       poll.Config
}

func deployPoll(ctx context.Context, prm deployPollPrm) (util.Uint160, error) {
	addr := state.CreateContractHash(prm.sender, prm.contract.NEF.Checksum, prm.contract.Manifest.Name)
	l := prm.logger.With(zap.Stringer("address", addr))

	l.Info("checking Voting contract presence on the chain...")

	_, err := prm.blockchain.GetContractStateByHash(addr)
	if err == nil {
		l.Info("Voting contract is already deployed, checking poll parameters...")

		err = checkDeployedPoll(prm.reader(addr), prm.poll, prm.sender)
		if err != nil {
			return util.Uint160{}, fmt.Errorf("check poll of the Voting contract %s: %w", addr.StringLE(), err)
		}

		return addr, nil
	} else if !isErrContractNotFound(err) {
		return util.Uint160{}, fmt.Errorf("get state of the Voting contract %s: %w", addr.StringLE(), err)
	}

	l.Info("Voting contract is missing on the chain, deploying...",
		zap.Strings("options", prm.poll.Options),
		zap.Int64("entrance fee", prm.poll.EntranceFee),
		zap.Duration("interval", prm.poll.Interval))

	if err = ctx.Err(); err != nil {
		return util.Uint160{}, err
	}

	type waitResult struct {
		res *state.AppExecResult
		err error
	}

	h, vub, err := prm.deployer.Deploy(&prm.contract.NEF, &prm.contract.Manifest, Data(prm.poll))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("send deployment transaction: %w", err)
	}

	l.Info("deployment transaction sent, waiting for acceptance...",
		zap.Stringer("tx", h), zap.Uint32("vub", vub))

	chRes := make(chan waitResult, 1)
	go func() {
		res, err := prm.waiter.Wait(h, vub, nil)
		chRes <- waitResult{res, err}
	}()

	select {
	case <-ctx.Done():
		return util.Uint160{}, fmt.Errorf("wait for deployment transaction %s: %w", h.StringLE(), ctx.Err())
	case r := <-chRes:
		if r.err != nil {
			return util.Uint160{}, fmt.Errorf("wait for deployment transaction %s: %w", h.StringLE(), r.err)
		}

		if err = voting.ExecutionError(r.res); err != nil {
			return util.Uint160{}, fmt.Errorf("deployment transaction %s failed: %w", h.StringLE(), err)
		}
	}

	l.Info("Voting contract successfully deployed")

	return addr, nil
}

// checkDeployedPoll returns ErrPollMismatch if the deployed poll was created
// with another configuration. Zero cfg.Owner means the deployer.
func checkDeployedPoll(r pollReader, cfg poll.Config, deployer util.Uint160) error {
	owner, err := r.Owner()
	if err != nil {
		return fmt.Errorf("read owner: %w", err)
	}

	expOwner := cfg.Owner
	if expOwner.Equals(util.Uint160{}) {
		expOwner = deployer
	}

	if !owner.Equals(expOwner) {
		return fmt.Errorf("%w: owner %s instead of %s", ErrPollMismatch, owner.StringLE(), expOwner.StringLE())
	}

	opts, err := r.Options()
	if err != nil {
		return fmt.Errorf("read options: %w", err)
	}

	if !slices.Equal(opts, cfg.Options) {
		return fmt.Errorf("%w: options %v instead of %v", ErrPollMismatch, opts, cfg.Options)
	}

	fee, err := r.EntranceFee()
	if err != nil {
		return fmt.Errorf("read entrance fee: %w", err)
	}

	if !fee.IsInt64() || fee.Int64() != cfg.EntranceFee {
		return fmt.Errorf("%w: entrance fee %s instead of %d", ErrPollMismatch, fee, cfg.EntranceFee)
	}

	interval, err := r.Interval()
	if err != nil {
		return fmt.Errorf("read interval: %w", err)
	}

	if !interval.IsInt64() || interval.Int64() != int64(cfg.Interval/time.Second) {
		return fmt.Errorf("%w: interval %ss instead of %s", ErrPollMismatch, interval, cfg.Interval)
	}

	return nil
}

func isErrContractNotFound(err error) bool {
	// there is no specific error code for missing contract, so the message is
	// matched
	return strings.Contains(err.Error(), "Unknown contract")
}
