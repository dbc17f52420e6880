// Package ctap2 holds the value objects exchanged with the host for the
// authenticatorMakeCredential and authenticatorGetAssertion commands, plus
// the closed status-code enumeration. The CBOR tags match the CTAP2 wire
// maps; actual framing and transport belong to the host layer.
package ctap2

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EncMode is the canonical CTAP2 CBOR encoding mode shared by everything
// in this module that serializes protocol payloads.
var EncMode, _ = cbor.CTAP2EncOptions().EncMode()

// Algorithm is a COSE algorithm identifier.
type Algorithm int

const (
	// AlgorithmES256 is ECDSA w/ SHA-256, the single signature scheme this
	// authenticator supports.
	AlgorithmES256 Algorithm = -7
)

const CredentialTypePublicKey = "public-key"

// PublicKeyCredentialRpEntity identifies the relying party a credential is
// bound to.
type PublicKeyCredentialRpEntity struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name,omitempty"`
}

// PublicKeyCredentialUserEntity identifies the account at the relying party.
type PublicKeyCredentialUserEntity struct {
	ID          []byte `cbor:"id"`
	Name        string `cbor:"name,omitempty"`
	DisplayName string `cbor:"displayName,omitempty"`
}

func (u PublicKeyCredentialUserEntity) String() string {
	return fmt.Sprintf("User{ID: %s, Name: %s}", hex.EncodeToString(u.ID), u.Name)
}

// PublicKeyCredentialParameters pairs a credential type with an algorithm.
type PublicKeyCredentialParameters struct {
	Type string    `cbor:"type"`
	Alg  Algorithm `cbor:"alg"`
}

// PublicKeyCredentialDescriptor identifies a single credential by its id.
type PublicKeyCredentialDescriptor struct {
	Type       string   `cbor:"type"`
	ID         []byte   `cbor:"id"`
	Transports []string `cbor:"transports,omitempty"`
}

// Options is the rk/up/uv option bundle carried by both commands. CTAP2
// defaults up to true when the host omits the map; hosts constructing
// requests in-process should start from DefaultOptions.
type Options struct {
	RK bool `cbor:"rk,omitempty"`
	UP bool `cbor:"up"`
	UV bool `cbor:"uv,omitempty"`
}

// DefaultOptions mirrors the CTAP2 defaults for an absent options map.
func DefaultOptions() Options {
	return Options{UP: true}
}
