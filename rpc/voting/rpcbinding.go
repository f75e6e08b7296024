// Package voting contains RPC wrappers for Voting contract.
package voting

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// VoteEvent represents "Vote" event emitted by the contract.
type VoteEvent struct {
	Voter  util.Uint160
	Option string
	Amount *big.Int
}

// CloseEvent represents "Close" event emitted by the contract.
type CloseEvent struct {
	Time *big.Int
}

// WithdrawEvent represents "Withdraw" event emitted by the contract.
type WithdrawEvent struct {
	To     util.Uint160
	Amount *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	nep17.Actor

	Sender() util.Uint160

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Collected invokes `collected` method of contract.
func (c *ContractReader) Collected() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "collected"))
}

// Deadline invokes `deadline` method of contract.
func (c *ContractReader) Deadline() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "deadline"))
}

// EntranceFee invokes `entranceFee` method of contract.
func (c *ContractReader) EntranceFee() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "entranceFee"))
}

// Interval invokes `interval` method of contract.
func (c *ContractReader) Interval() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "interval"))
}

// Options invokes `options` method of contract.
func (c *ContractReader) Options() ([]string, error) {
	return unwrap.ArrayOfUTF8Strings(c.invoker.Call(c.hash, "options"))
}

// Owner invokes `owner` method of contract.
func (c *ContractReader) Owner() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "owner"))
}

// State invokes `state` method of contract.
func (c *ContractReader) State() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "state"))
}

// Tally invokes `tally` method of contract.
func (c *ContractReader) Tally() (map[string]*big.Int, error) {
	return itemToTally(unwrap.Item(c.invoker.Call(c.hash, "tally")))
}

// TotalVotes invokes `totalVotes` method of contract.
func (c *ContractReader) TotalVotes() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalVotes"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// VoteOf invokes `voteOf` method of contract.
func (c *ContractReader) VoteOf(voter util.Uint160) (string, error) {
	return unwrap.UTF8String(c.invoker.Call(c.hash, "voteOf", voter))
}

// Voters invokes `voters` method of contract.
func (c *ContractReader) Voters() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "voters"))
}

// VotersExpanded is similar to Voters (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) VotersExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "voters", _numOfIteratorItems))
}

// Withdrawn invokes `withdrawn` method of contract.
func (c *ContractReader) Withdrawn() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "withdrawn"))
}

// Close creates a transaction invoking `close` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Close() (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "close")
}

// CloseTransaction creates a transaction invoking `close` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) CloseTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "close")
}

// CloseUnsigned creates a transaction invoking `close` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) CloseUnsigned() (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "close", nil)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", script, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", script, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, script, manifest, data)
}

// Withdraw creates a transaction invoking `withdraw` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Withdraw(to util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "withdraw", to)
}

// WithdrawTransaction creates a transaction invoking `withdraw` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) WithdrawTransaction(to util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "withdraw", to)
}

// WithdrawUnsigned creates a transaction invoking `withdraw` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) WithdrawUnsigned(to util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "withdraw", nil, to)
}

func itemToTally(item stackitem.Item, err error) (map[string]*big.Int, error) {
	if err != nil {
		return nil, err
	}

	m, ok := item.Value().([]stackitem.MapElement)
	if !ok {
		return nil, fmt.Errorf("%s is not a map", item.Type().String())
	}

	res := make(map[string]*big.Int, len(m))
	for i := range m {
		k, err := itemToUTF8String(m[i].Key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}

		v, err := m[i].Value.TryInteger()
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}

		res[k] = v
	}

	return res, nil
}

func itemToUTF8String(item stackitem.Item) (string, error) {
	b, err := item.TryBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("not a UTF-8 string")
	}
	return string(b), nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}

// VoteEventsFromApplicationLog retrieves a set of all emitted events
// with "Vote" name from the provided [result.ApplicationLog].
func VoteEventsFromApplicationLog(log *result.ApplicationLog) ([]*VoteEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*VoteEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "Vote" {
				continue
			}
			event := new(VoteEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize VoteEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to VoteEvent or
// returns an error if it's not possible to do to so.
func (e *VoteEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.Voter, err = itemToUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field Voter: %w", err)
	}

	index++
	e.Option, err = itemToUTF8String(arr[index])
	if err != nil {
		return fmt.Errorf("field Option: %w", err)
	}

	index++
	e.Amount, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// CloseEventsFromApplicationLog retrieves a set of all emitted events
// with "Close" name from the provided [result.ApplicationLog].
func CloseEventsFromApplicationLog(log *result.ApplicationLog) ([]*CloseEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*CloseEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "Close" {
				continue
			}
			event := new(CloseEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize CloseEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to CloseEvent or
// returns an error if it's not possible to do to so.
func (e *CloseEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 1 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	e.Time, err = arr[0].TryInteger()
	if err != nil {
		return fmt.Errorf("field Time: %w", err)
	}

	return nil
}

// WithdrawEventsFromApplicationLog retrieves a set of all emitted events
// with "Withdraw" name from the provided [result.ApplicationLog].
func WithdrawEventsFromApplicationLog(log *result.ApplicationLog) ([]*WithdrawEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*WithdrawEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "Withdraw" {
				continue
			}
			event := new(WithdrawEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize WithdrawEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to WithdrawEvent or
// returns an error if it's not possible to do to so.
func (e *WithdrawEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.To, err = itemToUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field To: %w", err)
	}

	index++
	e.Amount, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}
