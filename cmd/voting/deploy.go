package main

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/voting-contract/contracts"
	"github.com/nspcc-dev/voting-contract/deploy"
	"github.com/spf13/cobra"
)

func newDeployCmd(gf *globalFlags) *cobra.Command {
	var (
		configPath  string
		contractDir string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy Voting contract with a new poll",
		Long: `Deploy Voting contract with a new poll described in the YAML file.
The sending account pays for the deployment and owns the poll unless the
configuration specifies another owner. Contract address is printed on success.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(configPath)
			if err != nil {
				return fmt.Errorf("open poll configuration: %w", err)
			}

			cfg, err := readPollConfig(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("read poll configuration: %w", err)
			}

			ctr, err := contracts.Read(os.DirFS(contractDir), ".")
			if err != nil {
				return fmt.Errorf("read compiled contract from '%s': %w", contractDir, err)
			}

			e, err := newEnv(cmd.Context(), gf)
			if err != nil {
				return err
			}
			defer e.close()

			acc, err := e.account(gf)
			if err != nil {
				return err
			}

			addr, err := deploy.Deploy(e.ctx, deploy.Prm{
				Logger:       e.log,
				Blockchain:   e.rpc,
				LocalAccount: acc,
				Contract: deploy.CommonDeployPrm{
					NEF:      ctr.NEF,
					Manifest: ctr.Manifest,
				},
				Poll: cfg,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), addr.StringLE())

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the YAML poll configuration")
	cmd.Flags().StringVarP(&contractDir, "contract-dir", "d", "contracts/voting", "Directory with contract.nef and manifest.json")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
