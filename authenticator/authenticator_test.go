package authenticator_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-ctap2-authenticator/authenticator"
	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// mockUser is a scripted UserValidationMethod that records how often the
// consent ceremony ran.
type mockUser struct {
	calls    int
	deny     bool
	present  bool
	verified bool
}

func (m *mockUser) Check(_ context.Context, _ ctap2.Options, _ *passkey.Credential) (authenticator.UserCheck, error) {
	m.calls++
	if m.deny {
		return authenticator.UserCheck{}, ctap2.StatusOperationDenied
	}
	return authenticator.UserCheck{UserPresent: m.present, UserVerified: m.verified}, nil
}

func verifiedUser() *mockUser {
	return &mockUser{present: true, verified: true}
}

// untouchableStore fails the test on any access beyond the capability
// query.
type untouchableStore struct {
	t               *testing.T
	discoverability authenticator.DiscoverabilitySupport
}

func (s untouchableStore) FindCredentials(context.Context, []ctap2.PublicKeyCredentialDescriptor, string) ([]*passkey.Credential, error) {
	s.t.Fatal("FindCredentials must not be called")
	return nil, nil
}

func (s untouchableStore) SaveCredential(context.Context, *passkey.Credential, ctap2.PublicKeyCredentialUserEntity, ctap2.PublicKeyCredentialRpEntity, ctap2.Options) error {
	s.t.Fatal("SaveCredential must not be called")
	return nil
}

func (s untouchableStore) UpdateCredential(context.Context, *passkey.Credential) error {
	s.t.Fatal("UpdateCredential must not be called")
	return nil
}

func (s untouchableStore) Info() authenticator.StoreInfo {
	return authenticator.StoreInfo{Discoverability: s.discoverability}
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return buf
}

func goodMakeCredentialRequest(t *testing.T) *ctap2.MakeCredentialRequest {
	t.Helper()
	return &ctap2.MakeCredentialRequest{
		ClientDataHash: randomBytes(t, 32),
		RP: ctap2.PublicKeyCredentialRpEntity{
			ID:   "future.example.com",
			Name: "Example",
		},
		User: ctap2.PublicKeyCredentialUserEntity{
			ID:          randomBytes(t, 16),
			Name:        "Appleseed",
			DisplayName: "wendy",
		},
		PubKeyCredParams: []ctap2.PublicKeyCredentialParameters{{
			Type: ctap2.CredentialTypePublicKey,
			Alg:  ctap2.AlgorithmES256,
		}},
		Options: ctap2.Options{RK: true, UP: true, UV: true},
	}
}

func makeStoredCredential(t *testing.T, rpID string, counter *uint32) passkey.Credential {
	t.Helper()
	key, err := passkey.GenerateKey(ctap2.AlgorithmES256)
	require.NoError(t, err)
	id, err := passkey.NewCredentialID()
	require.NoError(t, err)
	return passkey.Credential{
		Key:          key,
		RPID:         rpID,
		CredentialID: id,
		Counter:      counter,
	}
}

func TestGetInfoReflectsStoreCapability(t *testing.T) {
	aaguid := uuid.New()

	auth := authenticator.New(aaguid, authenticator.NewMemoryStore(), verifiedUser())
	info := auth.GetInfo()
	require.Equal(t, aaguid, info.AAGUID)
	require.Equal(t, []string{ctap2.VersionFIDO20}, info.Versions)
	require.True(t, info.SupportsResidentKey())
	require.Empty(t, info.Extensions)

	auth = authenticator.New(aaguid, untouchableStore{t: t, discoverability: authenticator.DiscoverabilityOnlyNonDiscoverable}, verifiedUser())
	require.False(t, auth.GetInfo().SupportsResidentKey())
}

func TestGetInfoAdvertisesExtensions(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	require.Equal(t, []string{ctap2.ExtensionHmacSecret, ctap2.ExtensionPrf}, auth.GetInfo().Extensions)
}

func TestConsentDenialSurfacesOperationDenied(t *testing.T) {
	user := &mockUser{deny: true}
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), user)

	_, err := auth.MakeCredential(context.Background(), goodMakeCredentialRequest(t))
	require.ErrorIs(t, err, ctap2.StatusOperationDenied)
	require.Equal(t, 1, user.calls)
}

func TestUnverifiedUserDeniedWhenUVRequested(t *testing.T) {
	// The ceremony reports presence only, but the request demanded uv.
	user := &mockUser{present: true}
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), user)

	_, err := auth.MakeCredential(context.Background(), goodMakeCredentialRequest(t))
	require.ErrorIs(t, err, ctap2.StatusOperationDenied)
}
