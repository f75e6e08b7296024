package dump

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
)

// ID is a unique identifier of the dump.
type ID struct {
	// Label of the dump source (e.g. testnet, mainnet).
	Label string
	// Blockchain height at which the state was pulled.
	Block uint32
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(uint64(x.Block), 10)
}

// decodeString decodes ID fields from the file name prefix. Label must not
// contain separator.
func (x *ID) decodeString(s string) error {
	ss := strings.SplitN(s, sep, 3)
	if len(ss) < 2 {
		return fmt.Errorf("expected '%s'-separated string with at least 2 items", sep)
	}

	n, err := strconv.ParseUint(ss[1], 10, 32)
	if err != nil {
		return fmt.Errorf("decode block number from '%s': %w", ss[1], err)
	}

	x.Label = ss[0]
	x.Block = uint32(n)

	return nil
}

// binary values in CSV are base64-encoded.
var _encoding = base64.StdEncoding

// contractRecord is an element of the JSON array of dumped contracts.
type contractRecord struct {
	Name  string         `json:"name"`
	State state.Contract `json:"state"`
}

const (
	// word separator used in dump file naming
	sep = "-"

	statesFileSuffix  = "contracts.json"
	storageFileSuffix = "storage.csv"
)

// dumpFiles groups files of the single dump.
type dumpFiles struct {
	contracts, storage io.ReadWriteCloser
}

func (x *dumpFiles) close() {
	_ = x.storage.Close()
	_ = x.contracts.Close()
}

func dumpFilePath(dir string, id ID, suffix string) string {
	return filepath.Join(dir, id.String()+sep+suffix)
}

// openForRead opens existing dump files in the specified directory.
func (x *dumpFiles) openForRead(dir string, id ID) error {
	return x.open(dumpFilePath(dir, id, statesFileSuffix), dumpFilePath(dir, id, storageFileSuffix),
		os.O_RDONLY, 0)
}

// createForWrite creates dump files in the specified directory. Files must
// not exist.
func (x *dumpFiles) createForWrite(dir string, id ID) error {
	pathContracts := dumpFilePath(dir, id, statesFileSuffix)
	pathStorage := dumpFilePath(dir, id, storageFileSuffix)

	for _, p := range []string{pathContracts, pathStorage} {
		_, err := os.Stat(p)
		if !os.IsNotExist(err) {
			if err == nil {
				err = os.ErrExist
			}
			return fmt.Errorf("file '%s' absence check failed: %w", p, err)
		}
	}

	return x.open(pathContracts, pathStorage, os.O_CREATE|os.O_WRONLY, 0600)
}

func (x *dumpFiles) open(pathContracts, pathStorage string, flag int, perm os.FileMode) error {
	var err error

	x.contracts, err = os.OpenFile(pathContracts, flag, perm)
	if err != nil {
		return fmt.Errorf("open file with contract states: %w", err)
	}

	x.storage, err = os.OpenFile(pathStorage, flag, perm)
	if err != nil {
		_ = x.contracts.Close()
		return fmt.Errorf("open file with storage items: %w", err)
	}

	return nil
}
