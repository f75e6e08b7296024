package main

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/voting-contract/rpc/voting"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newVoteCmd(gf *globalFlags) *cobra.Command {
	var (
		contract string
		option   string
		amount   string
	)

	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Vote for the poll option paying GAS",
		Long: `Vote for the poll option by transferring GAS to the Voting contract.
Amount must cover the entrance fee, it is not refunded. Each account can vote
only once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := parseContract(contract)
			if err != nil {
				return err
			}

			if option == "" {
				return errors.New("missing option")
			}

			value, err := fixedn.FromString(amount, 8)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			e, err := newEnv(cmd.Context(), gf)
			if err != nil {
				return err
			}
			defer e.close()

			act, err := e.actor(gf)
			if err != nil {
				return err
			}

			e.log.Info("voting...", zap.Stringer("contract", hash),
				zap.String("option", option), zap.Stringer("amount", value))

			h, vub, err := voting.New(act, hash).Vote(option, value)

			return e.await(act, h, vub, err)
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Voting contract address")
	cmd.Flags().StringVarP(&option, "option", "o", "", "Poll option to vote for")
	cmd.Flags().StringVar(&amount, "amount", "", "Decimal amount of GAS to pay")
	_ = cmd.MarkFlagRequired("contract")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newCloseCmd(gf *globalFlags) *cobra.Command {
	var contract string

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close the poll",
		Long: `Close the poll. Before the deadline only the poll owner can close it, after
the deadline anyone can.`,
		Args: cobra.NoArgs,
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

			act, err := e.actor(gf)
			if err != nil {
				return err
			}

			e.log.Info("closing the poll...", zap.Stringer("contract", hash))

			h, vub, err := voting.New(act, hash).Close()

			return e.await(act, h, vub, err)
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Voting contract address")
	_ = cmd.MarkFlagRequired("contract")

	return cmd
}

func newWithdrawCmd(gf *globalFlags) *cobra.Command {
	var (
		contract string
		to       string
	)

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw GAS collected by the closed poll",
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

			act, err := e.actor(gf)
			if err != nil {
				return err
			}

			recipient := act.Sender()
			if to != "" {
				recipient, err = address.StringToUint160(to)
				if err != nil {
					return fmt.Errorf("invalid recipient address: %w", err)
				}
			}

			e.log.Info("withdrawing collected GAS...", zap.Stringer("contract", hash),
				zap.String("to", address.Uint160ToString(recipient)))

			h, vub, err := voting.New(act, hash).Withdraw(recipient)

			return e.await(act, h, vub, err)
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Voting contract address")
	cmd.Flags().StringVar(&to, "to", "", "Recipient address (default sending account)")
	_ = cmd.MarkFlagRequired("contract")

	return cmd
}
