// Package passkey defines the durable credential record held by an
// authenticator and the codec between COSE key objects and the concrete
// signing key.
package passkey

import (
	"crypto/rand"

	cose_key "github.com/ldclabs/cose/key"
	"github.com/pkg/errors"

	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
)

// Credential is the durable secret unit bound to one relying party. The
// relying-party binding never changes after creation; the counter, once
// present, only increases.
type Credential struct {
	// Key is the private key in its COSE representation.
	Key cose_key.Key `cbor:"1,keyasint"`

	RPID string `cbor:"2,keyasint"`

	// CredentialID is an opaque authenticator-chosen identifier, unique per
	// store.
	CredentialID []byte `cbor:"3,keyasint"`

	// UserHandle is present only when the credential is discoverable.
	UserHandle []byte `cbor:"4,keyasint,omitempty"`

	// Counter is the signature counter. Nil means the credential was created
	// without one and it stays permanently absent.
	Counter *uint32 `cbor:"5,keyasint,omitempty"`

	// Extensions holds per-extension values stored at creation time.
	Extensions StoredExtensions `cbor:"6,keyasint,omitempty"`
}

// StoredExtensions carries extension state persisted alongside a credential.
type StoredExtensions struct {
	// CredRandomWithUV seeds hmac-secret derivations for assertions where
	// user verification was performed.
	CredRandomWithUV []byte `cbor:"1,keyasint,omitempty"`

	// CredRandomWithoutUV seeds derivations when the extension configuration
	// permits skipping user verification.
	CredRandomWithoutUV []byte `cbor:"2,keyasint,omitempty"`
}

// Descriptor returns the credential's public descriptor.
func (c *Credential) Descriptor() ctap2.PublicKeyCredentialDescriptor {
	return ctap2.PublicKeyCredentialDescriptor{
		Type: ctap2.CredentialTypePublicKey,
		ID:   c.CredentialID,
	}
}

// IsDiscoverable reports whether the credential can be located without its
// id being supplied by the host.
func (c *Credential) IsDiscoverable() bool {
	return c.UserHandle != nil
}

// NewCredentialID draws a fresh 16-byte random credential identifier.
func NewCredentialID() ([]byte, error) {
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		return nil, errors.Wrap(err, "reading credential id randomness")
	}
	return id, nil
}
