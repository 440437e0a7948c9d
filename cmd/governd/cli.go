package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/union-dao/governance-kernel/core"
	"github.com/union-dao/governance-kernel/pkg/config"
	"github.com/union-dao/governance-kernel/transport/httprpc"
)

func client() *httprpc.Client {
	return httprpc.NewClient(newResolver())
}

var mintCmd = &cobra.Command{
	Use:   "mint <to> <qty>",
	Short: "Mint fungible tokens to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return err
		}
		req := struct {
			Caller  core.Principal
			Entries []core.MintEntry
		}{
			Caller:  core.Principal(cfg.Node.Principal),
			Entries: []core.MintEntry{{To: core.Principal(args[0]), Qty: qty}},
		}
		endpoint := core.RemoteCallEndpoint{CanisterID: PrincipalFungibleToken, MethodName: "fungible/mint"}
		raw, err := client().Call(context.Background(), endpoint, req)
		if err != nil {
			return err
		}
		var results []error
		if err := cbor.Unmarshal(raw, &results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", results)
		return nil
	},
}

var proposeCmd = &cobra.Command{
	Use:   "propose <union-wallet> <approval> <rejection> <quorum> <consensus>",
	Short: "Create a voting proposal against a wallet",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		approval, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}
		rejection, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return err
		}
		quorum, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return err
		}
		consensus, err := strconv.ParseFloat(args[4], 64)
		if err != nil {
			return err
		}

		params := core.NewVotingParams{
			UnionWallet: core.Principal(args[0]),
			Approval:    approval,
			Rejection:   rejection,
			Quorum:      quorum,
			Consensus:   consensus,
		}
		req := struct {
			Caller   core.Principal
			Params   core.NewVotingParams
			IsMember bool
		}{
			Caller:   core.Principal(cfg.Node.Principal),
			Params:   params,
			IsMember: true,
		}
		endpoint := core.RemoteCallEndpoint{CanisterID: PrincipalVotingManager, MethodName: "voting/create"}
		raw, err := client().Call(context.Background(), endpoint, req)
		if err != nil {
			return err
		}
		var id core.VotingId
		if err := cbor.Unmarshal(raw, &id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created voting %+v\n", id)
		return nil
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <union-wallet> <idx> <for|against|abstain>",
	Short: "Cast a ballot on a voting",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		choice, err := parseChoice(args[2])
		if err != nil {
			return err
		}

		req := struct {
			ID       core.VotingId
			Voter    core.Principal
			Choice   core.VoteChoice
			IsMember bool
		}{
			ID:       core.VotingId{UnionWallet: core.Principal(args[0]), Idx: idx},
			Voter:    core.Principal(cfg.Node.Principal),
			Choice:   choice,
			IsMember: true,
		}
		endpoint := core.RemoteCallEndpoint{CanisterID: PrincipalVotingManager, MethodName: "voting/vote"}
		if _, err := client().Call(context.Background(), endpoint, req); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "vote recorded")
		return nil
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute <union-wallet> <idx>",
	Short: "Execute an approved voting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}

		req := struct {
			Caller   core.Principal
			ID       core.VotingId
			IsMember bool
		}{
			Caller:   core.Principal(cfg.Node.Principal),
			ID:       core.VotingId{UnionWallet: core.Principal(args[0]), Idx: idx},
			IsMember: true,
		}
		endpoint := core.RemoteCallEndpoint{CanisterID: PrincipalVotingManager, MethodName: "voting/execute"}
		if _, err := client().Call(context.Background(), endpoint, req); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "execution dispatched")
		return nil
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy <union-wallet> <policy.yaml>",
	Short: "Install a wallet's voting policy from a YAML file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		votingCfg, err := config.LoadVotingConfig(args[1])
		if err != nil {
			return err
		}

		req := struct {
			Caller     core.Principal
			Wallet     core.Principal
			Config     core.VotingConfig
			Controller core.Account
		}{
			Caller:     core.Principal(cfg.Node.Principal),
			Wallet:     core.Principal(args[0]),
			Config:     votingCfg,
			Controller: core.Some(core.Principal(cfg.Node.Principal)),
		}
		endpoint := core.RemoteCallEndpoint{CanisterID: PrincipalVotingManager, MethodName: "voting/set_config"}
		if _, err := client().Call(context.Background(), endpoint, req); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "voting policy installed")
		return nil
	},
}

func parseChoice(s string) (core.VoteChoice, error) {
	switch s {
	case "for":
		return core.VoteFor, nil
	case "against":
		return core.VoteAgainst, nil
	case "abstain":
		return core.VoteAbstain, nil
	default:
		return 0, fmt.Errorf("unknown vote choice %q", s)
	}
}
