// Package idl parses the textual argument literal carried by a
// RemoteCallPayload into typed values and binary-encodes them for wire
// dispatch (spec §9 design notes: "require a library for the platform's
// interface-description language that supports parse(text) -> typed
// values and encode(typed) -> bytes").
package idl

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/hcl"
	"github.com/mitchellh/mapstructure"
)

// Args is the decoded, typed representation of a call's argument literal:
// a flat attribute set, e.g. `to = "abc"` `qty = 100`.
type Args map[string]interface{}

// Parse decodes text into typed argument values. It returns an error
// satisfying the caller's UnableToParseArgs classification on malformed
// input.
func Parse(text string) (Args, error) {
	var raw map[string]interface{}
	if err := hcl.Decode(&raw, text); err != nil {
		return nil, err
	}

	var args Args
	if err := mapstructure.Decode(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// Encode binary-encodes parsed argument values for dispatch over the wire.
func Encode(args Args) ([]byte, error) {
	return cbor.Marshal(args)
}
