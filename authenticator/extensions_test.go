package authenticator_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-ctap2-authenticator/authenticator"
	"github.com/splitsecure/go-ctap2-authenticator/authenticatordata"
	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
)

func boolPtr(v bool) *bool { return &v }

func TestUnconfiguredExtensionYieldsNoOutput(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser())

	req := goodMakeCredentialRequest(t)
	req.Extensions = &ctap2.MakeCredentialExtensionInputs{
		Prf: &ctap2.PrfInputs{},
	}

	resp, err := auth.MakeCredential(context.Background(), req)
	require.NoError(t, err)

	ad := authenticatordata.T{}
	require.NoError(t, authenticatordata.Unmarshal(resp.AuthData, &ad))
	require.Zero(t, ad.Flags&authenticatordata.ADF_HAS_EXTENSION_DATA)
	require.Nil(t, resp.UnsignedExtensionOutputs)
}

func TestConfiguredExtensionWithEmptyRequestYieldsNoOutput(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	req := goodMakeCredentialRequest(t)
	req.Extensions = &ctap2.MakeCredentialExtensionInputs{}

	resp, err := auth.MakeCredential(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, resp.UnsignedExtensionOutputs)
}

func TestConfiguredExtensionWithoutRequestYieldsNoOutput(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	resp, err := auth.MakeCredential(context.Background(), goodMakeCredentialRequest(t))
	require.NoError(t, err)
	require.Nil(t, resp.UnsignedExtensionOutputs)
}

func TestPrfNegotiationWithoutEval(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	req := goodMakeCredentialRequest(t)
	req.Extensions = &ctap2.MakeCredentialExtensionInputs{
		Prf: &ctap2.PrfInputs{},
	}

	resp, err := auth.MakeCredential(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, resp.UnsignedExtensionOutputs)
	require.NotNil(t, resp.UnsignedExtensionOutputs.Prf)
	require.True(t, resp.UnsignedExtensionOutputs.Prf.Enabled)
	require.Nil(t, resp.UnsignedExtensionOutputs.Prf.Results)
}

func TestPrfCreateHappyPath(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly().EnableOnMakeCredential()))

	req := goodMakeCredentialRequest(t)
	req.Extensions = &ctap2.MakeCredentialExtensionInputs{
		Prf: &ctap2.PrfInputs{
			Eval: &ctap2.PrfValues{
				First:  randomBytes(t, 32),
				Second: randomBytes(t, 32),
			},
		},
	}

	resp, err := auth.MakeCredential(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, resp.UnsignedExtensionOutputs)
	prf := resp.UnsignedExtensionOutputs.Prf
	require.NotNil(t, prf)
	require.True(t, prf.Enabled)
	require.NotNil(t, prf.Results)
	require.Len(t, prf.Results.First, 32)

	// UV-only configurations keep no second credential random, so the
	// second input is skipped rather than derived with the wrong seed.
	require.Nil(t, prf.Results.Second)
}

func TestPrfCreateWithoutMakeCredentialSupport(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	req := goodMakeCredentialRequest(t)
	req.Extensions = &ctap2.MakeCredentialExtensionInputs{
		Prf: &ctap2.PrfInputs{
			Eval: &ctap2.PrfValues{First: randomBytes(t, 32)},
		},
	}

	resp, err := auth.MakeCredential(context.Background(), req)
	require.NoError(t, err)

	prf := resp.UnsignedExtensionOutputs.Prf
	require.NotNil(t, prf)
	require.True(t, prf.Enabled)
	require.Nil(t, prf.Results)
}

func TestHmacSecretRequestBindsSignedOutput(t *testing.T) {
	auth := authenticator.New(uuid.New(), authenticator.NewMemoryStore(), verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	req := goodMakeCredentialRequest(t)
	req.Extensions = &ctap2.MakeCredentialExtensionInputs{
		HmacSecret: boolPtr(true),
	}

	resp, err := auth.MakeCredential(context.Background(), req)
	require.NoError(t, err)

	ad := authenticatordata.T{}
	require.NoError(t, authenticatordata.Unmarshal(resp.AuthData, &ad))
	require.NotZero(t, ad.Flags&authenticatordata.ADF_HAS_EXTENSION_DATA)
	require.NotEmpty(t, ad.Extensions)
}

func TestPrfAssertionDerivesSecrets(t *testing.T) {
	store := authenticator.NewMemoryStore()
	auth := authenticator.New(uuid.New(), store, verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	mcReq := goodMakeCredentialRequest(t)
	mcReq.Extensions = &ctap2.MakeCredentialExtensionInputs{Prf: &ctap2.PrfInputs{}}
	_, err := auth.MakeCredential(context.Background(), mcReq)
	require.NoError(t, err)

	salt := randomBytes(t, 32)
	gaReq := goodGetAssertionRequest(t, mcReq.RP.ID)
	gaReq.Extensions = &ctap2.GetAssertionExtensionInputs{
		Prf: &ctap2.PrfInputs{Eval: &ctap2.PrfValues{First: salt, Second: salt}},
	}

	resp, err := auth.GetAssertion(context.Background(), gaReq)
	require.NoError(t, err)

	require.NotNil(t, resp.UnsignedExtensionOutputs)
	prf := resp.UnsignedExtensionOutputs.Prf
	require.NotNil(t, prf)
	require.NotNil(t, prf.Results)
	require.Len(t, prf.Results.First, 32)
	// Identical salts map to identical secrets for the same credential.
	require.Equal(t, prf.Results.First, prf.Results.Second)

	// And the derivation is stable across assertions.
	again, err := auth.GetAssertion(context.Background(), gaReq)
	require.NoError(t, err)
	require.Equal(t, prf.Results.First, again.UnsignedExtensionOutputs.Prf.Results.First)
}

func TestPrfAssertionWithoutUVOmitsSecrets(t *testing.T) {
	store := authenticator.NewMemoryStore()
	auth := authenticator.New(uuid.New(), store, verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	mcReq := goodMakeCredentialRequest(t)
	mcReq.Extensions = &ctap2.MakeCredentialExtensionInputs{Prf: &ctap2.PrfInputs{}}
	_, err := auth.MakeCredential(context.Background(), mcReq)
	require.NoError(t, err)

	// Presence-only ceremony: the UV-gated half must be withheld.
	gaReq := goodGetAssertionRequest(t, mcReq.RP.ID)
	gaReq.Options.UV = false
	gaReq.Extensions = &ctap2.GetAssertionExtensionInputs{
		Prf: &ctap2.PrfInputs{Eval: &ctap2.PrfValues{First: randomBytes(t, 32)}},
	}

	presentOnly := &mockUser{present: true}
	authNoUV := authenticator.New(auth.AAGUID(), store, presentOnly,
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	resp, err := authNoUV.GetAssertion(context.Background(), gaReq)
	require.NoError(t, err)
	require.Nil(t, resp.UnsignedExtensionOutputs)
}

func TestPrfAssertionOnCredentialWithoutState(t *testing.T) {
	store := authenticator.NewMemoryStore()
	store.Insert(makeStoredCredential(t, "example.com", nil))

	auth := authenticator.New(uuid.New(), store, verifiedUser(),
		authenticator.WithHmacSecret(authenticator.NewHmacSecretConfigUVOnly()))

	req := goodGetAssertionRequest(t, "example.com")
	req.Extensions = &ctap2.GetAssertionExtensionInputs{
		Prf: &ctap2.PrfInputs{Eval: &ctap2.PrfValues{First: randomBytes(t, 32)}},
	}

	resp, err := auth.GetAssertion(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, resp.UnsignedExtensionOutputs)
}
