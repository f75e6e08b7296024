package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/voting-contract/poll"
)

// IterateDumps iterates over all dumps made by the Creator in the specified
// directory, and passes ID and Reader of each dump into f.
func IterateDumps(dir string, f func(ID, *Reader)) error {
	var id ID
	var r Reader
	var files dumpFiles

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if errors.Is(e, fs.ErrNotExist) {
			return nil
		} else if e != nil {
			return e
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if !strings.HasSuffix(name, statesFileSuffix) {
			return nil
		}

		err := id.decodeString(name)
		if err != nil {
			return fmt.Errorf("decode dump ID from file name '%s': %w", name, err)
		}

		err = files.openForRead(filepath.Dir(path), id)
		if err != nil {
			return fmt.Errorf("open dump files ('%s'): %w", name, err)
		}

		err = r.readFrom(files.contracts, files.storage)
		files.close()
		if err != nil {
			return fmt.Errorf("init dump reader ('%s'): %w", name, err)
		}

		f(id, &r)

		return nil
	})
}

// Reader reads contracts collected in the superior dump.
type Reader struct {
	contracts []contractRecord
	mStorage  map[string][]StorageItem
}

func (x *Reader) readFrom(rContracts, rStorage io.Reader) error {
	err := json.NewDecoder(rContracts).Decode(&x.contracts)
	if err != nil {
		return fmt.Errorf("decode contract states from JSON: %w", err)
	}

	_csv := csv.NewReader(rStorage)
	_csv.FieldsPerRecord = 3
	_csv.ReuseRecord = true

	if x.mStorage != nil {
		clear(x.mStorage)
	} else {
		x.mStorage = make(map[string][]StorageItem)
	}

	for {
		rec, err := _csv.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read next CSV record: %w", err)
		}

		var item StorageItem

		// out-of-range safety guaranteed by csv settings
		item.Key, err = _encoding.DecodeString(rec[1])
		if err != nil {
			return fmt.Errorf("decode storage item key: %w", err)
		}

		item.Value, err = _encoding.DecodeString(rec[2])
		if err != nil {
			return fmt.Errorf("decode storage item value: %w", err)
		}

		x.mStorage[rec[0]] = append(x.mStorage[rec[0]], item)
	}
}

// IterateContractStates iterates over all contracts from the superior dump and
// passes their states into f.
func (x *Reader) IterateContractStates(f func(name string, _state state.Contract)) error {
	for i := range x.contracts {
		f(x.contracts[i].Name, x.contracts[i].State)
	}
	return nil
}

// IterateContractStorages iterates over all contracts from the superior dump
// and passes their storage items into f.
func (x *Reader) IterateContractStorages(f func(name string, key, value []byte)) error {
	for name, items := range x.mStorage {
		for i := range items {
			f(name, items[i].Key, items[i].Value)
		}
	}
	return nil
}

// Poll decodes the record of the poll held by the named Voting contract from
// its dumped storage. The state is returned as it is stored, so the poll
// may be open in the result even if its deadline had passed by the dump time.
func (x *Reader) Poll(name string) (*poll.Snapshot, error) {
	found := false
	for i := range x.contracts {
		if found = x.contracts[i].Name == name; found {
			break
		}
	}

	if !found {
		return nil, fmt.Errorf("contract '%s' is missing in the dump", name)
	}

	res, err := DecodePoll(x.mStorage[name])
	if err != nil {
		return nil, fmt.Errorf("decode poll of the contract '%s': %w", name, err)
	}

	return res, nil
}
