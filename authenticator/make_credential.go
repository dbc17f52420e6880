package authenticator

import (
	"context"
	"crypto/sha256"

	"github.com/splitsecure/go-ctap2-authenticator/authenticatordata"
	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// MakeCredential generates a new credential bound to the requesting relying
// party.
//
// The procedure order is fixed by the CTAP2 spec and is load-bearing: the
// consent ceremony completes before the exclude-list lookup so the relying
// party never learns whether a credential exists without the user having
// interacted, and every gate aborts before any later step's side effects.
func (a *Authenticator) MakeCredential(ctx context.Context, input *ctap2.MakeCredentialRequest) (*ctap2.MakeCredentialResponse, error) {
	if len(input.ClientDataHash) != 32 {
		return nil, ctap2.StatusInvalidParameter
	}

	// PIN protocols are not implemented. Rejected up front so a
	// pinAuth-bearing request never touches the store.
	if input.PinUvAuthParam != nil {
		return nil, ctap2.StatusUnsupportedOption
	}

	// 1. Creation always requires user presence; collect consent up front.
	if !input.Options.UP {
		return nil, ctap2.StatusInvalidOption
	}
	flags, err := a.checkUser(ctx, input.Options, nil)
	if err != nil {
		return nil, err
	}

	// 2. With consent in hand, refuse ids the relying party already holds.
	if len(input.ExcludeList) > 0 {
		excluded, err := a.store.FindCredentials(ctx, input.ExcludeList, input.RP.ID)
		if err != nil {
			return nil, err
		}
		if len(excluded) > 0 {
			return nil, ctap2.StatusCredentialExcluded
		}
	}

	// 3. First mutually supported algorithm wins.
	algorithm, err := a.chooseAlgorithm(input.PubKeyCredParams)
	if err != nil {
		return nil, err
	}

	// 4. Resident keys only when the store can discover them later.
	if input.Options.RK && !a.GetInfo().SupportsResidentKey() {
		return nil, ctap2.StatusUnsupportedOption
	}

	// 5. Fresh identifier and key pair.
	credentialID, err := passkey.NewCredentialID()
	if err != nil {
		return nil, err
	}
	privateKey, err := passkey.GenerateKey(algorithm)
	if err != nil {
		return nil, err
	}

	// 6. Extension negotiation, before anything is signed.
	extensions, err := a.makeExtensions(input.Extensions, flags&authenticatordata.ADF_USER_VERIFIED != 0)
	if err != nil {
		return nil, err
	}

	// 7. The credential record. The user handle is stored only for
	// discoverable credentials; the counter exists only when enabled.
	credential := &passkey.Credential{
		Key:          privateKey,
		RPID:         input.RP.ID,
		CredentialID: credentialID,
		Extensions:   extensions.stored,
	}
	if input.Options.RK {
		credential.UserHandle = input.User.ID
	}
	if a.signatureCounters {
		zero := uint32(0)
		credential.Counter = &zero
	}

	// 8. Authenticator data with the attested-credential block.
	publicKey, err := passkey.PublicKey(credential.Key)
	if err != nil {
		return nil, err
	}

	rpHash := sha256.Sum256([]byte(input.RP.ID))
	adFlags := flags | authenticatordata.ADF_HAS_ATTESTED_CREDENTIAL_DATA
	if extensions.signed != nil {
		adFlags |= authenticatordata.ADF_HAS_EXTENSION_DATA
	}

	authData, err := authenticatordata.Marshal(&authenticatordata.T{
		RelyingPartyHash: rpHash[:],
		Flags:            adFlags,
		SignCount:        counterValue(credential.Counter),
		AttestedCredentialData: authenticatordata.AttestedCredentialData{
			AAGUID:              a.aaguid,
			CredentialID:        credentialID,
			CredentialPublicKey: publicKey,
		},
		Extensions: extensions.signed,
	})
	if err != nil {
		return nil, err
	}

	// 9. Persist. The store write is the commit point; its errors (e.g.
	// CTAP2_ERR_KEY_STORE_FULL) pass through verbatim.
	if err := a.store.SaveCredential(ctx, credential, input.User, input.RP, input.Options); err != nil {
		return nil, err
	}

	a.log().DebugContext(ctx, "made credential", "rp", input.RP.ID, "discoverable", input.Options.RK)

	// 10. The "none" attestation statement is an empty map.
	return &ctap2.MakeCredentialResponse{
		Fmt:                      ctap2.AttestationFormatNone,
		AuthData:                 authData,
		AttStmt:                  map[string]interface{}{},
		UnsignedExtensionOutputs: extensions.unsigned,
	}, nil
}
