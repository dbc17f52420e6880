package authenticator

import (
	"context"

	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// UserCheck is the outcome of a consent ceremony. It is recomputed for every
// operation and never persisted.
type UserCheck struct {
	UserPresent  bool
	UserVerified bool
}

// UserValidationMethod is the consent-ceremony collaborator contract.
//
// Check collects user presence and/or verification for the requested
// options. The located credential, when one exists, lets implementations
// show account context; it may be nil. The call may block indefinitely
// waiting for the user; cancellation flows through ctx. Refusal or timeout
// must surface as ctap2.StatusOperationDenied (or
// ctap2.StatusUserActionTimeout), never as a success with cleared flags plus
// a retry.
type UserValidationMethod interface {
	Check(ctx context.Context, options ctap2.Options, credential *passkey.Credential) (UserCheck, error)
}
