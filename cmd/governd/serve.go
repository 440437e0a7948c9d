package main

import (
	"context"
	"net/http"

	"github.com/fxamacker/cbor/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/union-dao/governance-kernel/core"
	"github.com/union-dao/governance-kernel/transport/httprpc"
)

// Logical canister identities for the actors hosted by a single governd
// process. Cross-actor references are by (principal, method), never by Go
// pointer (spec §9 re-architecture item "cyclic actor references").
const (
	PrincipalFungibleToken     core.Principal = "fungible-token"
	PrincipalClaimToken        core.Principal = "claim-token"
	PrincipalSharesToken       core.Principal = "shares-token"
	PrincipalVotingPowerLedger core.Principal = "voting-power-ledger"
	PrincipalVotingManager     core.Principal = "voting-manager"
	PrincipalWalletExecutor    core.Principal = "wallet-executor"
)

func newResolver() httprpc.Resolver {
	return httprpc.StaticResolver{
		PrincipalFungibleToken:     cfg.Actors.FungibleToken,
		PrincipalClaimToken:        cfg.Actors.ClaimToken,
		PrincipalSharesToken:       cfg.Actors.SharesToken,
		PrincipalVotingPowerLedger: cfg.Actors.VotingPowerLedger,
		PrincipalVotingManager:     cfg.Actors.VotingManager,
		PrincipalWalletExecutor:    cfg.Actors.WalletExecutor,
	}
}

func newRemoteCaller(resolver httprpc.Resolver) core.RemoteCaller {
	return httprpc.NewClient(resolver)
}

func newFungibleToken(caller core.RemoteCaller) *core.FungibleToken {
	return core.NewFungibleToken(
		PrincipalFungibleToken,
		core.FungibleTokenInfo{Name: "Union Governance Token", Symbol: "UGOV", Decimals: 8},
		core.SingleController(core.Some(core.Principal(cfg.Node.Principal))),
		caller,
	)
}

func newClaimToken(caller core.RemoteCaller) *core.ClaimToken {
	return core.NewClaimToken(
		PrincipalClaimToken,
		core.ClaimTokenInfo{Name: "Union Membership Claim"},
		core.SingleController(core.Some(core.Principal(cfg.Node.Principal))),
		caller,
	)
}

func newSharesToken(caller core.RemoteCaller) *core.SharesToken {
	return core.NewSharesToken(
		PrincipalSharesToken,
		core.SharesTokenInfo{Name: "Union Shares", Symbol: "USH"},
		core.SingleController(core.Some(core.Principal(cfg.Node.Principal))),
		caller,
	)
}

func newVotingPowerLedger() *core.VotingPowerLedger {
	vpl := core.NewVotingPowerLedger()
	vpl.RegisterEmitter(PrincipalFungibleToken)
	vpl.RegisterEmitter(PrincipalSharesToken)
	return vpl
}

func newVotingManager(caller core.RemoteCaller) *core.VotingManager {
	return core.NewVotingManager(caller)
}

func newWalletExecutor(caller core.RemoteCaller) *core.WalletExecutor {
	return core.NewWalletExecutor(core.Some(PrincipalVotingManager), caller)
}

func newServer() *httprpc.Server {
	return httprpc.NewServer()
}

// registerRoutes wires each actor's primary operations onto the shared HTTP
// host. Every route decodes a CBOR request body into the operation's
// argument struct and encodes its result the same way, matching the wire
// format described in spec §6.
func registerRoutes(
	server *httprpc.Server,
	ft *core.FungibleToken,
	ct *core.ClaimToken,
	st *core.SharesToken,
	vpl *core.VotingPowerLedger,
	vm *core.VotingManager,
	we *core.WalletExecutor,
) {
	// The voting-power ledger tracks the registered emitters' move history, so
	// it must be subscribed to every move the two emitters make.
	vplListener := core.OnMoveListener{
		Filter:   core.Filter{From: core.AnyAccount, To: core.AnyAccount},
		Endpoint: core.RemoteCallEndpoint{CanisterID: PrincipalVotingPowerLedger, MethodName: "voting_power/handle_on_move"},
	}
	admin := core.Principal(cfg.Node.Principal)
	if _, err := ft.SubscribeOnMove(admin, vplListener); err != nil {
		logrus.WithError(err).Fatal("subscribe voting power ledger to fungible token moves")
	}
	if _, err := st.SubscribeOnMove(admin, vplListener); err != nil {
		logrus.WithError(err).Fatal("subscribe voting power ledger to shares token moves")
	}

	type mintReq struct {
		Caller  core.Principal
		Entries []core.MintEntry
	}
	server.Handle("fungible/mint", func(r *http.Request, body []byte) ([]byte, error) {
		var req mintReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(ft.Mint(r.Context(), req.Caller, req.Entries))
	})

	server.Handle("fungible/balance_of", func(r *http.Request, body []byte) ([]byte, error) {
		var p core.Principal
		if err := cbor.Unmarshal(body, &p); err != nil {
			return nil, err
		}
		return cbor.Marshal(ft.BalanceOf(p))
	})

	type sendReq struct {
		Caller  core.Principal
		Entries []core.SendEntry
	}
	server.Handle("fungible/send", func(r *http.Request, body []byte) ([]byte, error) {
		var req sendReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(ft.Send(r.Context(), req.Caller, req.Entries))
	})

	type burnReq struct {
		Caller  core.Principal
		Entries []core.BurnEntry
	}
	server.Handle("fungible/burn", func(r *http.Request, body []byte) ([]byte, error) {
		var req burnReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(ft.Burn(r.Context(), req.Caller, req.Entries))
	})

	type issueReq struct {
		Caller  core.Principal
		Entries []core.IssueEntry
	}
	server.Handle("claim/issue", func(r *http.Request, body []byte) ([]byte, error) {
		var req issueReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(ct.Issue(r.Context(), req.Caller, req.Entries))
	})

	server.Handle("claim/has_claim", func(r *http.Request, body []byte) ([]byte, error) {
		var p core.Principal
		if err := cbor.Unmarshal(body, &p); err != nil {
			return nil, err
		}
		return cbor.Marshal(ct.HasClaim(p))
	})

	server.Handle("claim/revoke", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Caller  core.Principal
			Entries []core.RevokeEntry
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(ct.Revoke(r.Context(), req.Caller, req.Entries))
	})

	type sharesQueryReq struct {
		Account   core.Principal
		Timestamp int64
	}
	server.Handle("shares/balance_of_at", func(r *http.Request, body []byte) ([]byte, error) {
		var req sharesQueryReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(st.BalanceOfAt(req.Account, req.Timestamp))
	})

	server.Handle("shares/send", func(r *http.Request, body []byte) ([]byte, error) {
		var req sendReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(st.Send(r.Context(), req.Caller, req.Entries))
	})

	server.Handle("shares/burn", func(r *http.Request, body []byte) ([]byte, error) {
		var req burnReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return cbor.Marshal(st.Burn(r.Context(), req.Caller, req.Entries))
	})

	server.Handle("voting_power/handle_on_move", func(r *http.Request, body []byte) ([]byte, error) {
		var n core.MoveNotification
		if err := cbor.Unmarshal(body, &n); err != nil {
			return nil, err
		}
		if err := vpl.HandleOnMove(n.Emitter, n.Event); err != nil {
			return nil, err
		}
		return cbor.Marshal(struct{}{})
	})

	server.Handle("voting_power/voting_power_of_at", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Emitter   core.Principal
			Account   core.Principal
			Timestamp int64
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		power, err := vpl.VotingPowerOfAt(req.Emitter, req.Account, req.Timestamp)
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(power)
	})

	server.Handle("voting_power/total_voting_power_at", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Emitter   core.Principal
			Timestamp int64
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		power, err := vpl.TotalVotingPowerAt(req.Emitter, req.Timestamp)
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(power)
	})

	server.Handle("voting_power/register_emitter", func(r *http.Request, body []byte) ([]byte, error) {
		var p core.Principal
		if err := cbor.Unmarshal(body, &p); err != nil {
			return nil, err
		}
		vpl.RegisterEmitter(p)
		return cbor.Marshal(struct{}{})
	})

	server.Handle("voting_power/unregister_emitter", func(r *http.Request, body []byte) ([]byte, error) {
		var p core.Principal
		if err := cbor.Unmarshal(body, &p); err != nil {
			return nil, err
		}
		vpl.UnregisterEmitter(p)
		return cbor.Marshal(struct{}{})
	})

	server.Handle("voting/set_config", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Caller     core.Principal
			Wallet     core.Principal
			Config     core.VotingConfig
			Controller core.Account
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		if err := vm.SetVotingConfig(req.Caller, req.Wallet, req.Config, req.Controller); err != nil {
			return nil, err
		}
		return cbor.Marshal(struct{}{})
	})

	server.Handle("voting/create", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Caller   core.Principal
			Params   core.NewVotingParams
			IsMember bool
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		id, err := vm.CreateVoting(r.Context(), req.Caller, req.Params, req.IsMember)
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(id)
	})

	server.Handle("voting/update", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Caller   core.Principal
			ID       core.VotingId
			Params   core.UpdateVotingParams
			IsMember bool
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		if err := vm.UpdateVoting(r.Context(), req.Caller, req.ID, req.Params, req.IsMember); err != nil {
			return nil, err
		}
		return cbor.Marshal(struct{}{})
	})

	server.Handle("voting/delete", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Caller   core.Principal
			ID       core.VotingId
			IsMember bool
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		if err := vm.DeleteVoting(req.Caller, req.ID, req.IsMember); err != nil {
			return nil, err
		}
		return cbor.Marshal(struct{}{})
	})

	server.Handle("voting/vote", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			ID       core.VotingId
			Voter    core.Principal
			Choice   core.VoteChoice
			IsMember bool
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		if err := vm.Vote(r.Context(), req.ID, req.Voter, req.Choice, req.IsMember); err != nil {
			return nil, err
		}
		return cbor.Marshal(struct{}{})
	})

	server.Handle("voting/execute", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Caller   core.Principal
			ID       core.VotingId
			IsMember bool
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		if err := vm.Execute(r.Context(), req.Caller, req.ID, req.IsMember); err != nil {
			return nil, err
		}
		return cbor.Marshal(struct{}{})
	})

	server.Handle("wallet/_union_call", func(r *http.Request, body []byte) ([]byte, error) {
		var req struct {
			Caller  core.Principal
			Payload core.UnionCallPayload
		}
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		results, err := we.UnionCall(r.Context(), req.Caller, req.Payload)
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(results)
	})
}

func startServer(lc fx.Lifecycle, server *httprpc.Server) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.ListenAndServe(cfg.Node.ListenAddr); err != nil {
					logrus.WithError(err).Fatal("actor host stopped")
				}
			}()
			return nil
		},
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host this node's actors and serve their RPC endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			fx.Provide(
				newResolver,
				newRemoteCaller,
				newFungibleToken,
				newClaimToken,
				newSharesToken,
				newVotingPowerLedger,
				newVotingManager,
				newWalletExecutor,
				newServer,
			),
			fx.Invoke(registerRoutes, startServer),
			fx.NopLogger,
		)
		app.Run()
		return nil
	},
}
