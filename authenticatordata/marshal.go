package authenticatordata

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var encMode, _ = cbor.CTAP2EncOptions().EncMode()

// Marshal serializes authenticator data. The attested-credential block and
// the trailing extension map are emitted only when the corresponding flag
// bits are set.
func Marshal(src *T) ([]byte, error) {
	if len(src.RelyingPartyHash) != 32 {
		return nil, errors.Errorf("relying party hash must be 32 bytes, got %d", len(src.RelyingPartyHash))
	}

	buf := bytes.Buffer{}
	buf.Write(src.RelyingPartyHash)
	buf.WriteByte(src.Flags)

	count := [4]byte{}
	binary.BigEndian.PutUint32(count[:], src.SignCount)
	buf.Write(count[:])

	if src.Flags&ADF_HAS_ATTESTED_CREDENTIAL_DATA != 0 {
		if err := marshalAttestedCredentialData(&buf, &src.AttestedCredentialData); err != nil {
			return nil, err
		}
	}

	if src.Flags&ADF_HAS_EXTENSION_DATA != 0 {
		buf.Write(src.Extensions)
	}

	return buf.Bytes(), nil
}

func marshalAttestedCredentialData(buf *bytes.Buffer, acd *AttestedCredentialData) error {
	if len(acd.CredentialID) > math.MaxUint16 {
		return errors.Errorf("credential id too long: %d", len(acd.CredentialID))
	}

	buf.Write(acd.AAGUID[:])

	credLen := [2]byte{}
	binary.BigEndian.PutUint16(credLen[:], uint16(len(acd.CredentialID)))
	buf.Write(credLen[:])
	buf.Write(acd.CredentialID)

	keyBytes, err := encMode.Marshal(acd.CredentialPublicKey)
	if err != nil {
		return errors.Wrap(err, "encoding credential public key")
	}
	buf.Write(keyBytes)

	return nil
}
