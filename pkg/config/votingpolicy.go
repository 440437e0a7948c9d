package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/union-dao/governance-kernel/core"
	"github.com/union-dao/governance-kernel/pkg/utils"
)

// aclFile is the on-disk shape of an ACL: a kind name plus the principal
// list CreatorList/Exact consult. Any/Member ignore Principals.
type aclFile struct {
	Kind       string   `yaml:"kind"`
	Principals []string `yaml:"principals"`
}

func (a aclFile) toACL() core.ACL {
	kind := core.ACLAny
	switch a.Kind {
	case "member":
		kind = core.ACLMember
	case "creator_list":
		kind = core.ACLCreatorList
	case "exact":
		kind = core.ACLExact
	}
	principals := make(map[core.Principal]bool, len(a.Principals))
	for _, p := range a.Principals {
		principals[core.Principal(p)] = true
	}
	return core.ACL{Kind: kind, Principals: principals}
}

type intervalFile struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (i intervalFile) toInterval() core.Interval[float64] {
	return core.Interval[float64]{Min: i.Min, Max: i.Max}
}

// policyFile is the on-disk shape of an EndpointPolicy: the threshold
// bounds as fractions (0.0-1.0) and an optional duration bound in seconds.
type policyFile struct {
	Approval     intervalFile `yaml:"approval"`
	Rejection    intervalFile `yaml:"rejection"`
	Quorum       intervalFile `yaml:"quorum"`
	Consensus    intervalFile `yaml:"consensus"`
	DurationMinS *int64       `yaml:"duration_min_seconds"`
	DurationMaxS *int64       `yaml:"duration_max_seconds"`

	CanVote    aclFile `yaml:"can_vote"`
	CanCreate  aclFile `yaml:"can_create"`
	CanUpdate  aclFile `yaml:"can_update"`
	CanDelete  aclFile `yaml:"can_delete"`
	CanExecute aclFile `yaml:"can_execute"`
}

func (p policyFile) toEndpointPolicy() core.EndpointPolicy {
	ep := core.EndpointPolicy{
		Approval:   p.Approval.toInterval(),
		Rejection:  p.Rejection.toInterval(),
		Quorum:     p.Quorum.toInterval(),
		Consensus:  p.Consensus.toInterval(),
		CanVote:    p.CanVote.toACL(),
		CanCreate:  p.CanCreate.toACL(),
		CanUpdate:  p.CanUpdate.toACL(),
		CanDelete:  p.CanDelete.toACL(),
		CanExecute: p.CanExecute.toACL(),
	}
	if p.DurationMinS != nil && p.DurationMaxS != nil {
		d := core.Interval[int64]{Min: *p.DurationMinS * int64(1e9), Max: *p.DurationMaxS * int64(1e9)}
		ep.Duration = &d
	}
	return ep
}

// votingConfigFile is the on-disk shape of a wallet's VotingConfig: a
// default policy plus per-endpoint overrides, keyed by "canister.method".
type votingConfigFile struct {
	Default policyFile            `yaml:"default"`
	Custom  map[string]policyFile `yaml:"custom"`
}

// LoadVotingConfig reads a YAML policy bundle for a single union wallet
// and converts it into a core.VotingConfig ready for
// VotingManager.SetVotingConfig. Unlike the node/actor wiring in
// config.Load, per-wallet policy is deliberately kept out of viper: it is
// provisioned per wallet, not per environment, and its endpoint keys
// ("canister.method") are not valid viper key paths.
func LoadVotingConfig(path string) (core.VotingConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.VotingConfig{}, utils.Wrap(err, "read voting policy file")
	}

	var file votingConfigFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return core.VotingConfig{}, utils.Wrap(err, "parse voting policy file")
	}

	cfg := core.VotingConfig{
		Default: file.Default.toEndpointPolicy(),
		Custom:  make(map[core.RemoteCallEndpoint]core.EndpointPolicy, len(file.Custom)),
	}
	for key, policy := range file.Custom {
		cfg.Custom[parseEndpointKey(key)] = policy.toEndpointPolicy()
	}
	return cfg, nil
}

// parseEndpointKey splits a "canister.method" key into its two parts. A key
// without a '.' is treated as a bare method name on an implicit canister.
func parseEndpointKey(key string) core.RemoteCallEndpoint {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return core.RemoteCallEndpoint{CanisterID: core.Principal(key[:i]), MethodName: key[i+1:]}
		}
	}
	return core.RemoteCallEndpoint{MethodName: key}
}
