package dump

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/voting-contract/contracts/voting/votingconst"
	"github.com/nspcc-dev/voting-contract/poll"
)

// StorageItem is a key-value pair from the contract storage.
type StorageItem struct {
	Key   []byte
	Value []byte
}

func intItem(key string, v int64) StorageItem {
	return StorageItem{Key: []byte(key), Value: bigint.ToBytes(big.NewInt(v))}
}

// PollStorage encodes the poll record into storage items of the Voting
// contract. Items are sorted by key.
func PollStorage(s poll.Snapshot) ([]StorageItem, error) {
	opts := make([]stackitem.Item, len(s.Options))
	for i := range s.Options {
		opts[i] = stackitem.Make(s.Options[i])
	}

	bOpts, err := stackitem.Serialize(stackitem.NewArray(opts))
	if err != nil {
		return nil, fmt.Errorf("serialize options: %w", err)
	}

	res := []StorageItem{
		intItem(votingconst.EntranceFeeKey, s.EntranceFee),
		intItem(votingconst.IntervalKey, int64(s.Interval/time.Second)),
		intItem(votingconst.DeadlineKey, s.Deadline.UnixMilli()),
		intItem(votingconst.StateKey, int64(s.State)),
		{Key: []byte(votingconst.OwnerKey), Value: s.Owner.BytesBE()},
		{Key: []byte(votingconst.OptionsKey), Value: bOpts},
	}

	for k, v := range map[string]int64{
		votingconst.CollectedKey:  s.Collected,
		votingconst.WithdrawnKey:  s.Withdrawn,
		votingconst.TotalVotesKey: int64(len(s.Votes)),
	} {
		if v != 0 {
			res = append(res, intItem(k, v))
		}
	}

	for i := range s.Options {
		res = append(res, intItem(votingconst.OptionPrefix+s.Options[i], 1))

		if n := s.Tally[s.Options[i]]; n != 0 {
			res = append(res, intItem(votingconst.TallyPrefix+s.Options[i], n))
		}
	}

	for voter, opt := range s.Votes {
		res = append(res, StorageItem{
			Key:   append([]byte(votingconst.VoterPrefix), voter.BytesBE()...),
			Value: []byte(opt),
		})
	}

	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})

	return res, nil
}

// DecodePoll decodes the poll record from storage items of the Voting
// contract. Items may go in any order.
func DecodePoll(items []StorageItem) (*poll.Snapshot, error) {
	res := poll.Snapshot{
		Votes: make(map[util.Uint160]string),
		Tally: make(map[string]int64),
	}

	var (
		interval, deadline int64
		optsFound          bool
	)

	ints := map[string]*int64{
		votingconst.EntranceFeeKey: &res.EntranceFee,
		votingconst.IntervalKey:    &interval,
		votingconst.DeadlineKey:    &deadline,
		votingconst.CollectedKey:   &res.Collected,
		votingconst.WithdrawnKey:   &res.Withdrawn,
	}

	for i := range items {
		key, value := items[i].Key, items[i].Value
		if len(key) == 0 {
			return nil, errors.New("empty storage key")
		}

		if dst, ok := ints[string(key)]; ok {
			*dst = bigint.FromBytes(value).Int64()
			continue
		}

		switch sKey := string(key); {
		case sKey == votingconst.StateKey:
			res.State = poll.State(bigint.FromBytes(value).Int64())
		case sKey == votingconst.OwnerKey:
			owner, err := util.Uint160DecodeBytesBE(value)
			if err != nil {
				return nil, fmt.Errorf("decode owner: %w", err)
			}
			res.Owner = owner
		case sKey == votingconst.OptionsKey:
			opts, err := decodeOptions(value)
			if err != nil {
				return nil, fmt.Errorf("decode options: %w", err)
			}
			res.Options = opts
			optsFound = true
		case sKey == votingconst.TotalVotesKey, sKey[:1] == votingconst.OptionPrefix:
			// derived from other items
		case sKey[:1] == votingconst.TallyPrefix:
			res.Tally[sKey[1:]] = bigint.FromBytes(value).Int64()
		case sKey[:1] == votingconst.VoterPrefix:
			voter, err := util.Uint160DecodeBytesBE(key[1:])
			if err != nil {
				return nil, fmt.Errorf("decode voter from key %x: %w", key, err)
			}
			if !utf8.Valid(value) {
				return nil, fmt.Errorf("option chosen by %s is not a UTF-8 string", voter.StringLE())
			}
			res.Votes[voter] = string(value)
		default:
			return nil, fmt.Errorf("unexpected storage key %x", key)
		}
	}

	if !optsFound {
		return nil, errors.New("missing options")
	}

	for i := range res.Options {
		if _, ok := res.Tally[res.Options[i]]; !ok {
			res.Tally[res.Options[i]] = 0
		}
	}

	res.Interval = time.Duration(interval) * time.Second
	res.Deadline = time.UnixMilli(deadline)

	return &res, nil
}

func decodeOptions(b []byte) ([]string, error) {
	item, err := stackitem.Deserialize(b)
	if err != nil {
		return nil, err
	}

	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, fmt.Errorf("unexpected item type %s", item.Type())
	}

	res := make([]string, len(arr))
	for i := range arr {
		b, err := arr[i].TryBytes()
		if err != nil {
			return nil, fmt.Errorf("option #%d: %w", i, err)
		}

		if !utf8.Valid(b) {
			return nil, fmt.Errorf("option #%d is not a UTF-8 string", i)
		}

		res[i] = string(b)
	}

	return res, nil
}
