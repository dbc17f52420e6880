package authenticatordata

import (
	"bytes"
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Unmarshal parses authenticator data. The trailing extension map, when
// present, is kept as raw CBOR in dst.Extensions.
func Unmarshal(src []byte, dst *T) error {
	rest, err := unmarshalBase(src, dst)
	if err != nil {
		return err
	}

	if dst.Flags&ADF_HAS_ATTESTED_CREDENTIAL_DATA != 0 {
		rest, err = unmarshalAttestedCredentialData(rest, &dst.AttestedCredentialData)
		if err != nil {
			return err
		}
	}

	if dst.Flags&ADF_HAS_EXTENSION_DATA != 0 {
		dst.Extensions = rest
	}

	return nil
}

func unmarshalBase(src []byte, dst *T) (rest []byte, err error) {
	if len(src) < 37 {
		return nil, errors.Errorf("authenticator data too short: %d bytes", len(src))
	}

	cursor := src

	dst.RelyingPartyHash = cursor[0:32]
	cursor = cursor[32:]

	dst.Flags = cursor[0]
	cursor = cursor[1:]

	dst.SignCount = binary.BigEndian.Uint32(cursor)
	cursor = cursor[4:]

	return cursor, nil
}

func unmarshalAttestedCredentialData(src []byte, dst *AttestedCredentialData) (rest []byte, err error) {
	if len(src) < 18 {
		return nil, errors.Errorf("attested credential data too short: %d bytes", len(src))
	}

	copy(dst.AAGUID[:], src[0:16])

	credLen := binary.BigEndian.Uint16(src[16:18])
	if len(src) < 18+int(credLen) {
		return nil, errors.Errorf("credential id truncated: want %d bytes", credLen)
	}
	dst.CredentialID = src[18 : 18+credLen]

	dec := cbor.NewDecoder(bytes.NewReader(src[18+credLen:]))
	if err := dec.Decode(&dst.CredentialPublicKey); err != nil {
		return nil, errors.Wrap(err, "decoding credential public key")
	}

	return src[18+int(uint(credLen))+dec.NumBytesRead():], nil
}
