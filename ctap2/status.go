package ctap2

import "fmt"

// StatusCode is a CTAP2 status byte. The non-zero values double as the
// terminal error of an operation: they are returned verbatim to the host
// layer that owns wire encoding and are never retried by this core.
type StatusCode byte

const (
	StatusSuccess              StatusCode = 0x00
	StatusInvalidCommand       StatusCode = 0x01
	StatusInvalidParameter     StatusCode = 0x02
	StatusUnsupportedExtension StatusCode = 0x16
	StatusCredentialExcluded   StatusCode = 0x19
	StatusUnsupportedAlgorithm StatusCode = 0x26
	StatusOperationDenied      StatusCode = 0x27
	StatusKeyStoreFull         StatusCode = 0x28
	StatusUnsupportedOption    StatusCode = 0x2B
	StatusInvalidOption        StatusCode = 0x2C
	StatusNoCredentials        StatusCode = 0x2E
	StatusUserActionTimeout    StatusCode = 0x2F
	StatusNotAllowed           StatusCode = 0x30
	StatusPinAuthInvalid       StatusCode = 0x33
	StatusOther                StatusCode = 0x7F
)

var statusNames = map[StatusCode]string{
	StatusSuccess:              "CTAP2_OK",
	StatusInvalidCommand:       "CTAP1_ERR_INVALID_COMMAND",
	StatusInvalidParameter:     "CTAP1_ERR_INVALID_PARAMETER",
	StatusUnsupportedExtension: "CTAP2_ERR_UNSUPPORTED_EXTENSION",
	StatusCredentialExcluded:   "CTAP2_ERR_CREDENTIAL_EXCLUDED",
	StatusUnsupportedAlgorithm: "CTAP2_ERR_UNSUPPORTED_ALGORITHM",
	StatusOperationDenied:      "CTAP2_ERR_OPERATION_DENIED",
	StatusKeyStoreFull:         "CTAP2_ERR_KEY_STORE_FULL",
	StatusUnsupportedOption:    "CTAP2_ERR_UNSUPPORTED_OPTION",
	StatusInvalidOption:        "CTAP2_ERR_INVALID_OPTION",
	StatusNoCredentials:        "CTAP2_ERR_NO_CREDENTIALS",
	StatusUserActionTimeout:    "CTAP2_ERR_USER_ACTION_TIMEOUT",
	StatusNotAllowed:           "CTAP2_ERR_NOT_ALLOWED",
	StatusPinAuthInvalid:       "CTAP2_ERR_PIN_AUTH_INVALID",
	StatusOther:                "CTAP1_ERR_OTHER",
}

func (c StatusCode) Error() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CTAP2 status 0x%02x", byte(c))
}
