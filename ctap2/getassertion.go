package ctap2

// GetAssertionRequest is the parameter map of authenticatorGetAssertion
// (0x02).
type GetAssertionRequest struct {
	RPID              string                          `cbor:"1,keyasint"`
	ClientDataHash    []byte                          `cbor:"2,keyasint"`
	AllowList         []PublicKeyCredentialDescriptor `cbor:"3,keyasint,omitempty"`
	Extensions        *GetAssertionExtensionInputs    `cbor:"4,keyasint,omitempty"`
	Options           Options                         `cbor:"5,keyasint,omitempty"`
	PinUvAuthParam    []byte                          `cbor:"6,keyasint,omitempty"`
	PinUvAuthProtocol uint                            `cbor:"7,keyasint,omitempty"`
}

// GetAssertionResponse is the authenticatorGetAssertion response map.
//
// NumberOfCredentials is never populated: with one credential per account at
// an RP, a count would leak how many accounts the store holds.
type GetAssertionResponse struct {
	Credential          *PublicKeyCredentialDescriptor `cbor:"1,keyasint,omitempty"`
	AuthData            []byte                         `cbor:"2,keyasint"`
	Signature           []byte                         `cbor:"3,keyasint"`
	User                *PublicKeyCredentialUserEntity `cbor:"4,keyasint,omitempty"`
	NumberOfCredentials *uint                          `cbor:"5,keyasint,omitempty"`

	// UnsignedExtensionOutputs is returned out of band of the signed
	// authenticator data. Nil when no extension produced output.
	UnsignedExtensionOutputs *GetAssertionUnsignedExtensionOutputs `cbor:"-"`
}
