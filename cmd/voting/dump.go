package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/voting-contract/tests/dump"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDumpCmd(gf *globalFlags) *cobra.Command {
	var (
		contract string
		label    string
		outDir   string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump Voting contract state and storage into the archive",
		Long: `Dump Voting contract state and storage at the penult block into the
directory. Dumps are named '<label>-<block>' and can be read by package dump.
Requires state root support from the RPC server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := parseContract(contract)
			if err != nil {
				return err
			}

			if label == "" {
				return errors.New("missing blockchain label")
			}

			err = os.MkdirAll(outDir, 0700)
			if err != nil {
				return fmt.Errorf("create root dir: %w", err)
			}

			e, err := newEnv(cmd.Context(), gf)
			if err != nil {
				return err
			}
			defer e.close()

			b, err := newRemoteBlockChain(e.rpc)
			if err != nil {
				return fmt.Errorf("init remote blockchain: %w", err)
			}

			id := dump.ID{Label: label, Block: b.currentBlock}
			l := e.log.With(zap.Stringer("contract", hash), zap.Stringer("dump", id))

			st, err := b.contractState(hash)
			if err != nil {
				return err
			}

			d, err := dump.NewCreator(outDir, id)
			if err != nil {
				return fmt.Errorf("init local dumper: %w", err)
			}
			defer d.Close()

			l.Info("dumping contract storage...")

			var n int
			w := d.AddContract(name, st)

			err = b.iterateContractStorage(hash, func(key, value []byte) error {
				n++
				return w.Write(key, value)
			})
			if err != nil {
				return fmt.Errorf("iterate contract storage: %w", err)
			}

			err = d.Flush()
			if err != nil {
				return fmt.Errorf("flush dump: %w", err)
			}

			l.Info("contract is successfully dumped", zap.String("dir", outDir), zap.Int("items", n))

			return nil
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Voting contract address")
	cmd.Flags().StringVarP(&label, "label", "l", "", "Label of the blockchain environment (e.g. 'testnet')")
	cmd.Flags().StringVar(&outDir, "out", "testdata", "Directory to write dumps to")
	cmd.Flags().StringVar(&name, "name", "voting", "Contract name in the dump")
	_ = cmd.MarkFlagRequired("contract")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}
