package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/nspcc-dev/voting-contract/rpc/voting"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// env holds resources opened for a single command run.
type env struct {
	ctx    context.Context
	cancel context.CancelFunc

	log *zap.Logger
	rpc *rpcclient.Client
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// newEnv initializes logger and dials the RPC server. Resources must be
// released with close.
func newEnv(ctx context.Context, gf *globalFlags) (*env, error) {
	if gf.rpc == "" {
		return nil, errors.New("missing Neo RPC endpoint")
	}

	l, err := newLogger(gf.logLevel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, gf.timeout)

	c, err := rpcclient.New(ctx, gf.rpc, rpcclient.Options{
		DialTimeout:    gf.timeout,
		RequestTimeout: gf.timeout,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		cancel()
		return nil, fmt.Errorf("init RPC client: %w", err)
	}

	l.Debug("connected to Neo RPC server", zap.String("endpoint", gf.rpc))

	return &env{
		ctx:    ctx,
		cancel: cancel,
		log:    l,
		rpc:    c,
	}, nil
}

func (x *env) close() {
	x.rpc.Close()
	x.cancel()
	_ = x.log.Sync()
}

// account opens the wallet and decrypts the account selected by flags.
func (x *env) account(gf *globalFlags) (*wallet.Account, error) {
	if gf.wallet == "" {
		return nil, errors.New("missing wallet file")
	}

	w, err := wallet.NewWalletFromFile(gf.wallet)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}
	defer w.Close()

	var acc *wallet.Account
	if gf.address != "" {
		addr, err := address.StringToUint160(gf.address)
		if err != nil {
			return nil, fmt.Errorf("invalid account address: %w", err)
		}

		acc = w.GetAccount(addr)
		if acc == nil {
			return nil, fmt.Errorf("account %s is missing in the wallet", gf.address)
		}
	} else {
		acc = w.GetAccount(w.GetChangeAddress())
		if acc == nil {
			return nil, errors.New("wallet has no default account")
		}
	}

	password := gf.password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}

	err = acc.Decrypt(password, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", acc.Address, err)
	}

	return acc, nil
}

// actor returns transaction sender on behalf of the account selected by flags.
func (x *env) actor(gf *globalFlags) (*actor.Actor, error) {
	acc, err := x.account(gf)
	if err != nil {
		return nil, err
	}

	act, err := actor.NewSimple(x.rpc, acc)
	if err != nil {
		return nil, fmt.Errorf("init transaction sender: %w", err)
	}

	return act, nil
}

// await waits for the transaction to be accepted and checks its execution.
func (x *env) await(act *actor.Actor, h util.Uint256, vub uint32, err error) error {
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	x.log.Info("transaction sent, waiting for acceptance...",
		zap.Stringer("tx", h), zap.Uint32("vub", vub))

	type waitResult struct {
		err error
	}

	ch := make(chan waitResult, 1)
	go func() {
		res, err := act.Wait(h, vub, nil)
		if err == nil {
			err = voting.ExecutionError(res)
		}
		ch <- waitResult{err}
	}()

	select {
	case <-x.ctx.Done():
		return fmt.Errorf("wait for transaction %s: %w", h.StringLE(), x.ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("transaction %s: %w", h.StringLE(), r.err)
		}
	}

	x.log.Info("transaction successfully executed", zap.Stringer("tx", h))

	return nil
}

func parseContract(s string) (util.Uint160, error) {
	if s == "" {
		return util.Uint160{}, errors.New("missing contract address")
	}

	res, err := util.Uint160DecodeStringLE(s)
	if err == nil {
		return res, nil
	}

	res, err = address.StringToUint160(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid contract address '%s': must be LE hex or Neo address", s)
	}

	return res, nil
}
