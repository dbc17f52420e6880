// Package authenticatordata marshals and unmarshals the WebAuthn/CTAP2
// authenticator data structure. Relying parties parse these bytes directly,
// so the layout is byte-for-byte the one defined at
// https://www.w3.org/TR/webauthn/#sctn-authenticator-data.
package authenticatordata

import (
	"github.com/google/uuid"
	cose_key "github.com/ldclabs/cose/key"
)

const (
	ADF_USER_PRESENT                 = byte(1)
	ADF_RFU1                         = byte(1 << 1)
	ADF_USER_VERIFIED                = byte(1 << 2)
	ADF_HAS_ATTESTED_CREDENTIAL_DATA = byte(1 << 6)
	ADF_HAS_EXTENSION_DATA           = byte(1 << 7)
)

type T struct {
	RelyingPartyHash []byte
	Flags            byte
	SignCount        uint32

	// AttestedCredentialData is consulted only when the flags carry
	// ADF_HAS_ATTESTED_CREDENTIAL_DATA.
	AttestedCredentialData AttestedCredentialData

	// Extensions is a pre-encoded CBOR map appended verbatim when the flags
	// carry ADF_HAS_EXTENSION_DATA.
	Extensions []byte
}

type AttestedCredentialData struct {
	AAGUID              uuid.UUID
	CredentialID        []byte
	CredentialPublicKey cose_key.Key
}
