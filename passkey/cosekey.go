package passkey

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"

	"github.com/ldclabs/cose/iana"
	cose_key "github.com/ldclabs/cose/key"
	cose_ecdsa "github.com/ldclabs/cose/key/ecdsa"
	"github.com/pkg/errors"

	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
)

// GenerateKey creates a fresh private key for the given COSE algorithm in
// its portable COSE representation. ES256 is the only supported scheme.
func GenerateKey(alg ctap2.Algorithm) (cose_key.Key, error) {
	if alg != ctap2.AlgorithmES256 {
		return nil, ctap2.StatusUnsupportedAlgorithm
	}

	k, err := cose_ecdsa.GenerateKey(iana.AlgorithmES256)
	if err != nil {
		return nil, errors.Wrap(err, "generating ES256 key")
	}
	return k, nil
}

// PublicKey derives the public COSE key object from a private one. The
// result is what gets embedded in attested credential data; it never
// contains the private scalar.
func PublicKey(private cose_key.Key) (cose_key.Key, error) {
	pub, err := cose_ecdsa.ToPublicKey(private)
	if err != nil {
		return nil, errors.Wrap(err, "deriving public cose key")
	}
	return pub, nil
}

// Sign produces the ASN.1/DER ECDSA signature over SHA-256(message) using
// the credential's private key. This is the signature format relying
// parties expect for ES256 assertions.
func (c *Credential) Sign(message []byte) ([]byte, error) {
	private, err := cose_ecdsa.KeyToPrivate(c.Key)
	if err != nil {
		return nil, errors.Wrap(err, "decoding credential private key")
	}

	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, private, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "signing assertion digest")
	}
	return sig, nil
}

// VerifySignature checks an ASN.1 ECDSA signature over SHA-256(message)
// with the public half of the credential's key. Useful to hosts and tests
// validating produced assertions.
func (c *Credential) VerifySignature(message, sig []byte) (bool, error) {
	private, err := cose_ecdsa.KeyToPrivate(c.Key)
	if err != nil {
		return false, errors.Wrap(err, "decoding credential private key")
	}

	digest := sha256.Sum256(message)
	return ecdsa.VerifyASN1(&private.PublicKey, digest[:], sig), nil
}
