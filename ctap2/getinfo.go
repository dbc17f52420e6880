package ctap2

import "github.com/google/uuid"

// Version strings advertised by authenticatorGetInfo.
const (
	VersionFIDO20 = "FIDO_2_0"
)

// GetInfoResponse is the authenticatorGetInfo (0x04) response map. Only the
// fields this authenticator populates are declared.
type GetInfoResponse struct {
	Versions   []string                        `cbor:"1,keyasint"`
	Extensions []string                        `cbor:"2,keyasint,omitempty"`
	AAGUID     uuid.UUID                       `cbor:"3,keyasint"`
	Options    map[string]bool                 `cbor:"4,keyasint,omitempty"`
	Algorithms []PublicKeyCredentialParameters `cbor:"10,keyasint,omitempty"`
}

// SupportsResidentKey reports the "rk" entry of the options map.
func (r *GetInfoResponse) SupportsResidentKey() bool {
	return r.Options["rk"]
}
