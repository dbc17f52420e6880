package authenticator

import (
	"context"
	"crypto/sha256"

	"github.com/splitsecure/go-ctap2-authenticator/authenticatordata"
	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// GetAssertion proves possession of a previously generated credential bound
// to the relying party.
//
// The consent ceremony runs even when no credential was located, and before
// NoCredentials is surfaced: skipping it would let a caller distinguish
// "no account here" from "account exists" without any user interaction.
func (a *Authenticator) GetAssertion(ctx context.Context, input *ctap2.GetAssertionRequest) (*ctap2.GetAssertionResponse, error) {
	if len(input.ClientDataHash) != 32 {
		return nil, ctap2.StatusInvalidParameter
	}

	// PIN protocols are not implemented. Rejected up front so a
	// pinAuth-bearing request never touches the store.
	if input.PinUvAuthParam != nil {
		return nil, ctap2.StatusPinAuthInvalid
	}

	// 1. Locate eligible credentials. The store orders matches most recent
	// first; only the first is ever surfaced, and no count is reported.
	// Lookup failures are held back until after the consent ceremony.
	located, findErr := a.locate(ctx, input)

	// 2. Discoverable-only flows are not served by this command shape.
	if input.Options.RK {
		return nil, ctap2.StatusUnsupportedOption
	}

	// 3. Consent, with the located credential (possibly nil) for context.
	flags, err := a.checkUser(ctx, input.Options, located)
	if err != nil {
		return nil, err
	}

	// 4. Only now may lookup results leak.
	if findErr != nil {
		return nil, findErr
	}
	if located == nil {
		return nil, ctap2.StatusNoCredentials
	}

	// 5. Counter bookkeeping: exactly one increment, persisted before
	// signing. A counter-less credential stays counter-less.
	if located.Counter != nil {
		next := *located.Counter + 1
		located.Counter = &next
		if err := a.store.UpdateCredential(ctx, located); err != nil {
			return nil, err
		}
	}

	// 6. Extension negotiation, gated on the UV outcome.
	extensions, err := a.getExtensions(located, input.Extensions, flags&authenticatordata.ADF_USER_VERIFIED != 0)
	if err != nil {
		return nil, err
	}

	// 7. Sign authenticatorData || clientDataHash. The plain concatenation
	// is unambiguous: authenticator data describes its own length and the
	// fixed-size hash comes last.
	adFlags := flags
	if extensions.signed != nil {
		adFlags |= authenticatordata.ADF_HAS_EXTENSION_DATA
	}

	rpHash := sha256.Sum256([]byte(input.RPID))
	authData, err := authenticatordata.Marshal(&authenticatordata.T{
		RelyingPartyHash: rpHash[:],
		Flags:            adFlags,
		SignCount:        counterValue(located.Counter),
		Extensions:       extensions.signed,
	})
	if err != nil {
		return nil, err
	}

	message := make([]byte, 0, len(authData)+len(input.ClientDataHash))
	message = append(message, authData...)
	message = append(message, input.ClientDataHash...)

	signature, err := located.Sign(message)
	if err != nil {
		return nil, err
	}

	a.log().DebugContext(ctx, "produced assertion", "rp", input.RPID)

	// 8. Minimal user info: the handle only, and never a credential count.
	descriptor := located.Descriptor()
	var user *ctap2.PublicKeyCredentialUserEntity
	if located.UserHandle != nil {
		user = &ctap2.PublicKeyCredentialUserEntity{ID: located.UserHandle}
	}

	return &ctap2.GetAssertionResponse{
		Credential:               &descriptor,
		AuthData:                 authData,
		Signature:                signature,
		User:                     user,
		NumberOfCredentials:      nil,
		UnsignedExtensionOutputs: extensions.unsigned,
	}, nil
}

func (a *Authenticator) locate(ctx context.Context, input *ctap2.GetAssertionRequest) (*passkey.Credential, error) {
	creds, err := a.store.FindCredentials(ctx, input.AllowList, input.RPID)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, nil
	}
	return creds[0], nil
}
