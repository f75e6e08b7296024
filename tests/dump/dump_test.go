package dump

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/voting-contract/poll"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) poll.Snapshot {
	start := time.UnixMilli(1_700_000_000_000)

	p, err := poll.Create(poll.Config{
		Options:     []string{"A", "B", "C"},
		EntranceFee: 100,
		Interval:    time.Hour,
	}, util.Uint160{1, 2, 3}, start)
	require.NoError(t, err)

	require.NoError(t, p.CastVote(start, util.Uint160{4}, "A", 100))
	require.NoError(t, p.CastVote(start, util.Uint160{5}, "A", 150))
	require.NoError(t, p.CastVote(start, util.Uint160{6}, "C", 100))
	require.NoError(t, p.Close(start, util.Uint160{1, 2, 3}))

	_, err = p.Withdraw(start, util.Uint160{1, 2, 3})
	require.NoError(t, err)

	return p.Snapshot()
}

func TestID(t *testing.T) {
	id := ID{Label: "testnet", Block: 42}
	require.Equal(t, "testnet-42", id.String())

	var res ID
	require.NoError(t, res.decodeString("testnet-42-contracts.json"))
	require.Equal(t, id, res)

	require.Error(t, res.decodeString("testnet"))
	require.Error(t, res.decodeString("testnet-block-contracts.json"))
}

func TestPollStorage(t *testing.T) {
	s := testSnapshot(t)

	items, err := PollStorage(s)
	require.NoError(t, err)

	res, err := DecodePoll(items)
	require.NoError(t, err)
	require.Equal(t, s, *res)

	// order does not matter
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	res, err = DecodePoll(items)
	require.NoError(t, err)
	require.Equal(t, s, *res)

	_, err = poll.Restore(*res)
	require.NoError(t, err)

	t.Run("invalid", func(t *testing.T) {
		for name, items := range map[string][]StorageItem{
			"no options":    {intItem("f", 1)},
			"unknown key":   {{Key: []byte("z"), Value: []byte{1}}},
			"empty key":     {{Value: []byte{1}}},
			"invalid voter": {{Key: []byte("v\x01\x02"), Value: []byte("A")}},
			"invalid owner": {{Key: []byte("w"), Value: []byte{1}}},
			"options type":  {{Key: []byte("l"), Value: []byte{0x21, 1, 1}}},
		} {
			_, err := DecodePoll(items)
			require.Error(t, err, name)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	var (
		dir = t.TempDir()
		id  = ID{Label: "polls", Block: 100}
		s   = testSnapshot(t)
		st  = state.Contract{ContractBase: state.ContractBase{
			ID:       1,
			Hash:     util.Uint160{0xff},
			Manifest: *manifest.NewManifest("Voting"),
		}}
	)

	c, err := NewCreator(dir, id)
	require.NoError(t, err)

	require.NoError(t, c.AddContract("voting", st).WritePoll(s))
	require.NoError(t, c.AddContract("empty", st).Write([]byte{1}, []byte{2}))
	require.NoError(t, c.Flush())
	c.Close()

	_, err = NewCreator(dir, id)
	require.ErrorIs(t, err, os.ErrExist)

	_, err = os.Stat(filepath.Join(dir, "polls-100-storage.csv"))
	require.NoError(t, err)

	var called int

	err = IterateDumps(dir, func(_id ID, r *Reader) {
		called++
		require.Equal(t, id, _id)

		var names []string
		require.NoError(t, r.IterateContractStates(func(name string, _state state.Contract) {
			names = append(names, name)
			require.Equal(t, st.Hash, _state.Hash)
		}))
		require.Equal(t, []string{"voting", "empty"}, names)

		res, err := r.Poll("voting")
		require.NoError(t, err)
		require.Equal(t, s, *res)

		_, err = r.Poll("missing")
		require.Error(t, err)

		_, err = r.Poll("empty")
		require.Error(t, err)
	})
	require.NoError(t, err)
	require.Equal(t, 1, called)

	require.NoError(t, IterateDumps(filepath.Join(dir, "missing"), func(ID, *Reader) {
		t.Fatal("must not be called")
	}))
}
