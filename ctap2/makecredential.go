package ctap2

// MakeCredentialRequest is the parameter map of authenticatorMakeCredential
// (0x01). It is consumed once; fields this core validates but does not act
// on (e.g. transports inside descriptors) are discarded.
type MakeCredentialRequest struct {
	ClientDataHash    []byte                          `cbor:"1,keyasint"`
	RP                PublicKeyCredentialRpEntity     `cbor:"2,keyasint"`
	User              PublicKeyCredentialUserEntity   `cbor:"3,keyasint"`
	PubKeyCredParams  []PublicKeyCredentialParameters `cbor:"4,keyasint"`
	ExcludeList       []PublicKeyCredentialDescriptor `cbor:"5,keyasint,omitempty"`
	Extensions        *MakeCredentialExtensionInputs  `cbor:"6,keyasint,omitempty"`
	Options           Options                         `cbor:"7,keyasint,omitempty"`
	PinUvAuthParam    []byte                          `cbor:"8,keyasint,omitempty"`
	PinUvAuthProtocol uint                            `cbor:"9,keyasint,omitempty"`
}

// MakeCredentialResponse is the authenticatorMakeCredential response map.
// AuthData embeds the attested credential block; AttStmt is always the empty
// "none" statement for this authenticator.
type MakeCredentialResponse struct {
	Fmt      string                 `cbor:"1,keyasint"`
	AuthData []byte                 `cbor:"2,keyasint"`
	AttStmt  map[string]interface{} `cbor:"3,keyasint"`

	// UnsignedExtensionOutputs is returned out of band of the signed
	// authenticator data. Nil when no extension produced output.
	UnsignedExtensionOutputs *MakeCredentialUnsignedExtensionOutputs `cbor:"-"`
}

// AttestationFormatNone is the only attestation statement format this
// authenticator produces.
const AttestationFormatNone = "none"
