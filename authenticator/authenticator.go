// Package authenticator implements the authenticator side of the two CTAP2
// credential operations, authenticatorMakeCredential and
// authenticatorGetAssertion, on top of pluggable credential-store and
// user-validation collaborators.
package authenticator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/splitsecure/go-ctap2-authenticator/authenticatordata"
	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// Authenticator owns the authenticator identity and orchestrates the store,
// user-validation and extension collaborators into the two public
// operations. A single instance executes each operation as one sequential
// unit of work; concurrent hosts should use independent instances or rely on
// the store's own serialization.
type Authenticator struct {
	aaguid uuid.UUID
	store  CredentialStore
	user   UserValidationMethod

	signatureCounters bool
	hmacSecret        *HmacSecretConfig
	logger            *slog.Logger
}

type option struct {
	apply func(*Authenticator)
}

func newoption(fn func(*Authenticator)) option {
	return option{apply: fn}
}

// WithSignatureCounter makes new credentials carry a signature counter
// initialized to zero. Credentials created without one stay counter-less
// forever.
func WithSignatureCounter() option {
	return newoption(func(a *Authenticator) {
		a.signatureCounters = true
	})
}

// WithHmacSecret configures the hmac-secret/PRF extension.
func WithHmacSecret(cfg HmacSecretConfig) option {
	return newoption(func(a *Authenticator) {
		a.hmacSecret = &cfg
	})
}

// WithLogger routes the operation breadcrumbs somewhere other than
// slog.Default().
func WithLogger(logger *slog.Logger) option {
	return newoption(func(a *Authenticator) {
		a.logger = logger
	})
}

// New builds an authenticator with the given 16-byte identity and
// collaborators.
func New(aaguid uuid.UUID, store CredentialStore, user UserValidationMethod, options ...option) *Authenticator {
	a := &Authenticator{
		aaguid: aaguid,
		store:  store,
		user:   user,
	}
	for _, option := range options {
		option.apply(a)
	}
	return a
}

// AAGUID returns the authenticator identity embedded in every attested
// credential.
func (a *Authenticator) AAGUID() uuid.UUID {
	return a.aaguid
}

// GetInfo answers the authenticatorGetInfo query. MakeCredential consults it
// to decide whether resident-key requests can be honored.
func (a *Authenticator) GetInfo() *ctap2.GetInfoResponse {
	info := &ctap2.GetInfoResponse{
		Versions: []string{ctap2.VersionFIDO20},
		AAGUID:   a.aaguid,
		Options: map[string]bool{
			"rk": a.store.Info().SupportsDiscoverable(),
			"up": true,
		},
		Algorithms: []ctap2.PublicKeyCredentialParameters{{
			Type: ctap2.CredentialTypePublicKey,
			Alg:  ctap2.AlgorithmES256,
		}},
	}
	if a.hmacSecret != nil {
		info.Extensions = []string{ctap2.ExtensionHmacSecret, ctap2.ExtensionPrf}
	}
	return info
}

// checkUser runs the consent ceremony and converts the outcome into
// authenticator-data flag bits. Both operations call it before any
// credential-existence information may reach the caller: an adversary must
// not be able to probe for credentials without a ceremony.
func (a *Authenticator) checkUser(ctx context.Context, options ctap2.Options, credential *passkey.Credential) (byte, error) {
	check, err := a.user.Check(ctx, options, credential)
	if err != nil {
		return 0, err
	}

	if options.UP && !check.UserPresent {
		return 0, ctap2.StatusOperationDenied
	}
	if options.UV && !check.UserVerified {
		return 0, ctap2.StatusOperationDenied
	}

	flags := byte(0)
	if check.UserPresent {
		flags |= authenticatordata.ADF_USER_PRESENT
	}
	if check.UserVerified {
		flags |= authenticatordata.ADF_USER_VERIFIED
	}
	return flags, nil
}

// chooseAlgorithm selects the first host-offered algorithm the authenticator
// supports.
func (a *Authenticator) chooseAlgorithm(params []ctap2.PublicKeyCredentialParameters) (ctap2.Algorithm, error) {
	for _, param := range params {
		if param.Type == ctap2.CredentialTypePublicKey && param.Alg == ctap2.AlgorithmES256 {
			return param.Alg, nil
		}
	}
	return 0, ctap2.StatusUnsupportedAlgorithm
}

func (a *Authenticator) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

func counterValue(counter *uint32) uint32 {
	if counter == nil {
		return 0
	}
	return *counter
}
