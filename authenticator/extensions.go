package authenticator

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// HmacSecretConfig controls the hmac-secret extension and its WebAuthn prf
// mapping. The zero value is not meaningful; use one of the constructors.
type HmacSecretConfig struct {
	allowWithoutUV   bool
	onMakeCredential bool
}

// NewHmacSecretConfigUVOnly permits secret derivation only when user
// verification was performed for the operation.
func NewHmacSecretConfigUVOnly() HmacSecretConfig {
	return HmacSecretConfig{}
}

// NewHmacSecretConfigWithoutUV additionally maintains a second credential
// random so secrets can be derived for operations without user
// verification.
func NewHmacSecretConfigWithoutUV() HmacSecretConfig {
	return HmacSecretConfig{allowWithoutUV: true}
}

// EnableOnMakeCredential also evaluates prf inputs during credential
// creation, not just during assertions.
func (c HmacSecretConfig) EnableOnMakeCredential() HmacSecretConfig {
	c.onMakeCredential = true
	return c
}

// madeExtensions is the creation-side negotiation result: values to store
// with the credential, the payload bound into the signed authenticator data,
// and the payload returned out of band.
type madeExtensions struct {
	stored   passkey.StoredExtensions
	signed   []byte
	unsigned *ctap2.MakeCredentialUnsignedExtensionOutputs
}

// makeExtensions negotiates extensions for MakeCredential. An extension that
// is not configured, or not requested, contributes nothing and never errors.
func (a *Authenticator) makeExtensions(req *ctap2.MakeCredentialExtensionInputs, uvSatisfied bool) (madeExtensions, error) {
	out := madeExtensions{}
	if a.hmacSecret == nil || req == nil {
		return out, nil
	}

	hmacRequested := req.HmacSecret != nil && *req.HmacSecret
	prfRequested := req.Prf != nil
	if !hmacRequested && !prfRequested {
		return out, nil
	}

	stored, err := newStoredExtensions(*a.hmacSecret)
	if err != nil {
		return out, err
	}
	out.stored = stored

	if hmacRequested {
		signed, err := ctap2.EncMode.Marshal(map[string]bool{ctap2.ExtensionHmacSecret: true})
		if err != nil {
			return out, errors.Wrap(err, "encoding hmac-secret output")
		}
		out.signed = signed
	}

	if prfRequested {
		prf := &ctap2.PrfOutputs{Enabled: true}
		if a.hmacSecret.onMakeCredential && req.Prf.Eval != nil && uvSatisfied {
			prf.Results = evalPrfCreate(&out.stored, req.Prf.Eval, *a.hmacSecret)
		}
		out.unsigned = &ctap2.MakeCredentialUnsignedExtensionOutputs{Prf: prf}
	}

	return out, nil
}

// gotExtensions is the assertion-side negotiation result.
type gotExtensions struct {
	signed   []byte
	unsigned *ctap2.GetAssertionUnsignedExtensionOutputs
}

// getExtensions negotiates extensions for GetAssertion. Secret derivation is
// gated on whether user verification was satisfied; a credential created
// without hmac-secret state yields nothing.
func (a *Authenticator) getExtensions(cred *passkey.Credential, req *ctap2.GetAssertionExtensionInputs, uvSatisfied bool) (gotExtensions, error) {
	out := gotExtensions{}
	if a.hmacSecret == nil || req == nil || req.Prf == nil {
		return out, nil
	}

	eval := selectPrfInput(req.Prf, cred.CredentialID)
	if eval == nil {
		return out, nil
	}

	results := evalPrf(&cred.Extensions, eval, *a.hmacSecret, uvSatisfied)
	if results == nil {
		return out, nil
	}

	out.unsigned = &ctap2.GetAssertionUnsignedExtensionOutputs{
		Prf: &ctap2.PrfOutputs{Results: results},
	}
	return out, nil
}

func newStoredExtensions(cfg HmacSecretConfig) (passkey.StoredExtensions, error) {
	stored := passkey.StoredExtensions{}

	withUV := make([]byte, 32)
	if _, err := rand.Read(withUV); err != nil {
		return stored, errors.Wrap(err, "generating credential random")
	}
	stored.CredRandomWithUV = withUV

	if cfg.allowWithoutUV {
		withoutUV := make([]byte, 32)
		if _, err := rand.Read(withoutUV); err != nil {
			return stored, errors.Wrap(err, "generating credential random")
		}
		stored.CredRandomWithoutUV = withoutUV
	}

	return stored, nil
}

// selectPrfInput picks the per-credential eval when the host supplied one,
// falling back to the generic eval. evalByCredential keys credential ids in
// their base64url form, as they appear in WebAuthn.
func selectPrfInput(prf *ctap2.PrfInputs, credentialID []byte) *ctap2.PrfValues {
	if prf.EvalByCredential != nil {
		key := base64.RawURLEncoding.EncodeToString(credentialID)
		if eval, ok := prf.EvalByCredential[key]; ok {
			return eval
		}
	}
	return prf.Eval
}

// evalPrfCreate derives prf results during credential creation. The first
// salt always uses the UV credential random; the second uses the no-UV
// random and is omitted entirely on UV-only configurations.
func evalPrfCreate(stored *passkey.StoredExtensions, eval *ctap2.PrfValues, cfg HmacSecretConfig) *ctap2.PrfValues {
	results := &ctap2.PrfValues{First: deriveSecret(stored.CredRandomWithUV, eval.First)}
	if eval.Second != nil && cfg.allowWithoutUV {
		results.Second = deriveSecret(stored.CredRandomWithoutUV, eval.Second)
	}
	return results
}

// evalPrf derives the prf results for an assertion, or nil when the
// configuration forbids derivation for this operation. The sensitive half is
// omitted rather than derived with the wrong credential random.
func evalPrf(stored *passkey.StoredExtensions, eval *ctap2.PrfValues, cfg HmacSecretConfig, uvSatisfied bool) *ctap2.PrfValues {
	credRandom := stored.CredRandomWithUV
	if !uvSatisfied {
		if !cfg.allowWithoutUV {
			return nil
		}
		credRandom = stored.CredRandomWithoutUV
	}
	if len(credRandom) == 0 {
		return nil
	}

	results := &ctap2.PrfValues{First: deriveSecret(credRandom, eval.First)}
	if eval.Second != nil {
		results.Second = deriveSecret(credRandom, eval.Second)
	}
	return results
}

// deriveSecret computes HMAC-SHA-256(credRandom, SHA-256("WebAuthn PRF" ||
// 0x00 || salt)), the prf-to-hmac-secret salt mapping from the WebAuthn
// spec.
func deriveSecret(credRandom, salt []byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte("WebAuthn PRF"))
	hasher.Write([]byte{0})
	hasher.Write(salt)
	mapped := hasher.Sum(nil)

	mac := hmac.New(sha256.New, credRandom)
	mac.Write(mapped)
	return mac.Sum(nil)
}
