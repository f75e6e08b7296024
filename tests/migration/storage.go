package migration

import (
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/config"
	"github.com/nspcc-dev/neo-go/pkg/core"
	"github.com/nspcc-dev/neo-go/pkg/core/dao"
	"github.com/nspcc-dev/neo-go/pkg/core/native"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/voting-contract/poll"
	"github.com/nspcc-dev/voting-contract/rpc/voting"
	"github.com/nspcc-dev/voting-contract/tests/dump"
	"github.com/stretchr/testify/require"
)

// Contract provides part of Neo blockchain services primarily related to the
// Voting contract being tested. Initial state of the tested contract is
// initialized from the dump of the blockchain in which it has already been
// deployed (mostly with real data from public networks, but polls composed
// with dump.Creator are also possible). The contract itself is identified by
// its name in the dump. After preparing the test shell of the blockchain from
// the input data, the contract can be updated using the appropriate methods.
// Contract also provides data access interfaces that can be used to ensure that
// data is migrated correctly.
//
// Contract instances must be constructed using NewContract.
type Contract struct {
	id int32

	exec *neotest.Executor

	invoker *neotest.ContractInvoker

	bNEF      []byte
	jManifest []byte
}

// ContractOptions groups various options of NewContract.
type ContractOptions struct {
	// Path to the directory containing source code of the tested Voting
	// contract. Defaults to '../name'.
	SourceCodeDir string

	// Listener of storage dump of the tested contract. Useful for working with raw
	// values that can not be accessed by the contract API.
	StorageDumpHandler func(key, value []byte)
}

// NewContract constructs Contract from provided dump.Reader for the named
// Voting contract.
//
// The Contract is initialized with all contracts (states and data) from the
// dump.Reader. If you need to process storage items of the tested contract
// before the chain is initialized, use ContractOptions.StorageDumpHandler. If
// set, NewContract passes each key-value item into the function.
//
// By default, new version of the contract executable is compiled from '../name'
// directory. The path can be overridden by ContractOptions.SourceCodeDir.
func NewContract(tb testing.TB, d *dump.Reader, name string, opts ContractOptions) *Contract {
	lowLevelStore := storage.NewMemoryStore()
	cachedStore := storage.NewMemCachedStore(lowLevelStore) // mem-cached store has sweeter interface
	_dao := dao.NewSimple(lowLevelStore, false)

	var id int32
	found := false

	nativeContracts := native.NewContracts(config.ProtocolConfiguration{})

	err := nativeContracts.Management.InitializeCache(0, _dao)
	require.NoError(tb, err)

	mNameToID := make(map[string]int32)

	err = d.IterateContractStates(func(_name string, _state state.Contract) {
		_state.UpdateCounter = 0 // contract could be dumped as already updated

		err = native.PutContractState(_dao, &_state)
		require.NoError(tb, err)

		if !found {
			found = _name == name
			if found {
				id = _state.ID
			}
		}

		mNameToID[_name] = _state.ID
	})
	require.NoError(tb, err)
	require.True(tb, found)

	err = d.IterateContractStorages(func(_name string, key, value []byte) {
		if opts.StorageDumpHandler != nil && _name == name {
			opts.StorageDumpHandler(key, value)
		}

		id, ok := mNameToID[_name]
		require.True(tb, ok)

		storageKey := make([]byte, 5+len(key))
		storageKey[0] = byte(_dao.Version.StoragePrefix)
		binary.LittleEndian.PutUint32(storageKey[1:], uint32(id))
		copy(storageKey[5:], key)

		cachedStore.Put(storageKey, value)
	})

	_, err = _dao.PersistSync()
	require.NoError(tb, err)

	_, err = cachedStore.PersistSync()
	require.NoError(tb, err)

	// init test blockchain
	useDefaultConfig := func(*config.Blockchain) {}
	var blockChain *core.Blockchain

	{ // FIXME: hack area, track neo-go#2926
		// contracts embedded in the blockchain the moment before are not visible unless
		// the blockchain is run twice. At the same time, in order not to clear the
		// storage, method Close is overridden.
		var run bool // otherwise on tb.Cleanup will panic which is not critical, but not pleasant either
		blockChain, _ = chain.NewSingleWithCustomConfigAndStore(tb, useDefaultConfig, nopCloseStore{lowLevelStore}, run)
		go blockChain.Run()
		blockChain.Close()
	}

	blockChain, committee := chain.NewSingleWithCustomConfigAndStore(tb, useDefaultConfig, lowLevelStore, true)

	exec := neotest.NewExecutor(tb, blockChain, committee, committee)

	// compile new contract version
	if opts.SourceCodeDir == "" {
		opts.SourceCodeDir = filepath.Join("..", name)
	}

	ctr := neotest.CompileFile(tb, exec.CommitteeHash, opts.SourceCodeDir, filepath.Join(opts.SourceCodeDir, "config.yml"))

	bNEF, err := ctr.NEF.Bytes()
	require.NoError(tb, err)

	jManifest, err := json.Marshal(ctr.Manifest)
	require.NoError(tb, err)

	return &Contract{
		id:        id,
		exec:      exec,
		invoker:   exec.NewInvoker(exec.ContractHash(tb, id), committee),
		bNEF:      bNEF,
		jManifest: jManifest,
	}
}

// CheckUpdateFail tests that contract update with given arguments fails with
// exact fault exception. Contract executable (NEF and manifest) is compiled
// from source code (see NewContract for details).
func (x *Contract) CheckUpdateFail(tb testing.TB, faultException string, args ...any) {
	x.invoker.InvokeFail(tb, faultException, "update", x.bNEF, x.jManifest, args)
}

// Call tests that calling the contract method with optional arguments succeeds
// and result contains single value. The resulting value is returned as
// stackitem.Item.
//
// Note that Call doesn't change the chain state, so only read (aka safe)
// methods should be used.
func (x *Contract) Call(tb testing.TB, method string, args ...any) stackitem.Item {
	res, err := unwrap.Item(NewInvoker(tb, x.invoker).Call(x.Hash(), method, args...))
	require.NoError(tb, err, "method '%s'", method)

	return res
}

// GetStorageItem returns value stored in the tested contract by key.
func (x *Contract) GetStorageItem(key []byte) []byte {
	return x.exec.Chain.GetStorageItem(x.id, key)
}

// SeekStorage passes storage items of the tested contract with the given key
// prefix to f until it returns false. Prefix is cut from the passed keys.
func (x *Contract) SeekStorage(prefix []byte, f func(k, v []byte) bool) {
	x.exec.Chain.SeekStorage(x.id, prefix, f)
}

// Executor returns test blockchain executor the contract is deployed to.
// Committee of the blockchain has update access to the contract.
func (x *Contract) Executor() *neotest.Executor {
	return x.exec
}

// Hash returns address of the tested contract.
func (x *Contract) Hash() util.Uint160 {
	return x.invoker.Hash
}

// Poll reads the poll record using contract API. At most maxVoters votes are
// read. Returned state accounts for the deadline at the time of the next
// block.
func (x *Contract) Poll(tb testing.TB, maxVoters int) *poll.Snapshot {
	res, err := voting.NewReader(NewInvoker(tb, x.invoker), x.Hash()).Snapshot(maxVoters)
	require.NoError(tb, err)

	return res
}
