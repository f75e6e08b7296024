package migration

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	istorage "github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/voting-contract/rpc/voting"
)

// inheritor of storage.Store canceling Close method.
type nopCloseStore struct {
	storage.Store
}

func (x nopCloseStore) Close() error {
	return nil
}

// testInvoker implements voting.Invoker via test invocations of the
// neotest.ContractInvoker. Iterators are expanded right in the test VM,
// sessions are not supported.
type testInvoker struct {
	tb  testing.TB
	inv *neotest.ContractInvoker
}

// NewInvoker returns voting.Invoker calling methods of the contract
// referenced by inv in test invocations. Resulting state of the chain is not
// changed. Invocation faults are returned as FAULT results.
func NewInvoker(tb testing.TB, inv *neotest.ContractInvoker) voting.Invoker {
	return testInvoker{tb: tb, inv: inv}
}

func (x testInvoker) invoke(method string, args ...any) (*result.Invoke, []stackitem.Item) {
	vmStack, err := x.inv.TestInvoke(x.tb, method, args...)
	if err != nil {
		return &result.Invoke{State: vmstate.Fault.String(), FaultException: err.Error()}, nil
	}

	return nil, vmStack.ToArray()
}

func (x testInvoker) Call(_ util.Uint160, method string, args ...any) (*result.Invoke, error) {
	res, stack := x.invoke(method, args...)
	if res != nil {
		return res, nil
	}

	return &result.Invoke{State: vmstate.Halt.String(), Stack: stack}, nil
}

func (x testInvoker) CallAndExpandIterator(_ util.Uint160, method string, maxItems int, args ...any) (*result.Invoke, error) {
	res, stack := x.invoke(method, args...)
	if res != nil {
		return res, nil
	}

	if len(stack) != 1 {
		return nil, errors.New("result stack must contain single iterator")
	}

	iter, ok := stack[0].Value().(*istorage.Iterator)
	if !ok {
		return nil, errors.New("result is not a storage iterator")
	}

	items := make([]stackitem.Item, 0)
	for len(items) < maxItems && iter.Next() {
		items = append(items, iter.Value())
	}

	return &result.Invoke{State: vmstate.Halt.String(), Stack: []stackitem.Item{stackitem.NewArray(items)}}, nil
}

func (x testInvoker) TerminateSession(uuid.UUID) error {
	return errors.New("sessions are not supported")
}

func (x testInvoker) TraverseIterator(uuid.UUID, *result.Iterator, int) ([]stackitem.Item, error) {
	return nil, errors.New("sessions are not supported")
}
