/*
Voting is a command line utility to manage polls held by the Voting contract.

It deploys new polls, casts votes, closes polls, withdraws collected GAS,
prints poll status and dumps contract storage for the archive. Run
'voting help' to get the list of commands.
*/
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const passwordEnv = "VOTING_WALLET_PASSWORD"

// Version is set at build time.
var Version = "dev"

// globalFlags groups flags shared by all commands.
type globalFlags struct {
	rpc      string
	wallet   string
	address  string
	password string
	timeout  time.Duration
	logLevel string
}

func newRootCmd() *cobra.Command {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:           "voting",
		Short:         "CLI for polls held by the Voting contract",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&gf.rpc, "rpc", "r", "", "Network address of the Neo RPC server")
	pf.StringVarP(&gf.wallet, "wallet", "w", "", "Path to the Neo wallet file")
	pf.StringVarP(&gf.address, "address", "a", "", "Account address from the wallet (default account if empty)")
	pf.StringVar(&gf.password, "password", "", "Password of the wallet account (default from "+passwordEnv+")")
	pf.DurationVarP(&gf.timeout, "timeout", "t", time.Minute, "Timeout of the whole command")
	pf.StringVar(&gf.logLevel, "log-level", "info", "Logging level: debug, info, warn, error")

	rootCmd.AddCommand(
		newDeployCmd(&gf),
		newVoteCmd(&gf),
		newCloseCmd(&gf),
		newWithdrawCmd(&gf),
		newStatusCmd(&gf),
		newDumpCmd(&gf),
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
