package ctap2

// Extension identifiers understood by this authenticator.
const (
	ExtensionHmacSecret = "hmac-secret"
	ExtensionPrf        = "prf"
)

// PrfValues carries one or two PRF evaluation inputs. Second is optional.
type PrfValues struct {
	First  []byte `cbor:"first"`
	Second []byte `cbor:"second,omitempty"`
}

// PrfInputs is the WebAuthn prf extension input as it reaches the
// authenticator boundary. EvalByCredential keys are credential ids; it is
// only meaningful alongside an allow list.
type PrfInputs struct {
	Eval             *PrfValues            `cbor:"eval,omitempty"`
	EvalByCredential map[string]*PrfValues `cbor:"evalByCredential,omitempty"`
}

// PrfOutputs reports negotiation and, when permitted, derived secrets.
type PrfOutputs struct {
	Enabled bool       `cbor:"enabled,omitempty"`
	Results *PrfValues `cbor:"results,omitempty"`
}

// MakeCredentialExtensionInputs is the extensions map of a MakeCredential
// request. Unknown extensions requested by a host are dropped during CBOR
// decoding and therefore negotiate to nothing.
type MakeCredentialExtensionInputs struct {
	HmacSecret *bool      `cbor:"hmac-secret,omitempty"`
	Prf        *PrfInputs `cbor:"prf,omitempty"`
}

// MakeCredentialUnsignedExtensionOutputs collects per-extension outputs that
// are returned alongside the response without being bound into the
// signature.
type MakeCredentialUnsignedExtensionOutputs struct {
	Prf *PrfOutputs `cbor:"prf,omitempty"`
}

// GetAssertionExtensionInputs is the extensions map of a GetAssertion
// request.
type GetAssertionExtensionInputs struct {
	Prf *PrfInputs `cbor:"prf,omitempty"`
}

// GetAssertionUnsignedExtensionOutputs collects per-extension unsigned
// outputs for an assertion.
type GetAssertionUnsignedExtensionOutputs struct {
	Prf *PrfOutputs `cbor:"prf,omitempty"`
}
