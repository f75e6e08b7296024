package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/voting-contract/poll"
	"github.com/nspcc-dev/voting-contract/rpc/voting"
	"github.com/spf13/cobra"
)

func newStatusCmd(gf *globalFlags) *cobra.Command {
	var (
		contract  string
		maxVoters int
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print poll state, deadline and tally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := parseContract(contract)
			if err != nil {
				return err
			}

			e, err := newEnv(cmd.Context(), gf)
			if err != nil {
				return err
			}
			defer e.close()

			s, err := voting.NewReader(invoker.New(e.rpc, nil), hash).Snapshot(maxVoters)
			if err != nil {
				return fmt.Errorf("read poll: %w", err)
			}

			printPoll(cmd.OutOrStdout(), s, verbose)

			return nil
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Voting contract address")
	cmd.Flags().IntVar(&maxVoters, "max-voters", 1000, "Maximum number of votes to read")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print votes of each account")
	_ = cmd.MarkFlagRequired("contract")

	return cmd
}

func printPoll(w io.Writer, s *poll.Snapshot, verbose bool) {
	gasString := func(n int64) string {
		return fixedn.Fixed8(n).String()
	}

	fmt.Fprintf(w, "State:        %s\n", s.State)
	fmt.Fprintf(w, "Owner:        %s\n", address.Uint160ToString(s.Owner))
	fmt.Fprintf(w, "Deadline:     %s\n", s.Deadline.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Interval:     %s\n", s.Interval)
	fmt.Fprintf(w, "Entrance fee: %s GAS\n", gasString(s.EntranceFee))
	fmt.Fprintf(w, "Collected:    %s GAS\n", gasString(s.Collected))
	fmt.Fprintf(w, "Withdrawn:    %s GAS\n", gasString(s.Withdrawn))
	fmt.Fprintln(w, "Tally:")

	for _, opt := range s.Options {
		fmt.Fprintf(w, "\t%s: %d\n", opt, s.Tally[opt])
	}

	if !verbose {
		return
	}

	voters := make([]string, 0, len(s.Votes))
	options := make(map[string]string, len(s.Votes))

	for voter, opt := range s.Votes {
		addr := address.Uint160ToString(voter)
		voters = append(voters, addr)
		options[addr] = opt
	}

	sort.Strings(voters)

	fmt.Fprintln(w, "Votes:")
	for i := range voters {
		fmt.Fprintf(w, "\t%s: %s\n", voters[i], options[voters[i]])
	}
}
