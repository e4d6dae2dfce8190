package ui

import (
	"errors"

	"github.com/BigLep01/CRMdev/internal/ui/encoding"
)

// Sentinel errors for component requests.
var (
	ErrNotFound         = errors.New("ui: resource not found")
	ErrDecryptFailed    = errors.New("ui: parameter decryption failed")
	ErrSignatureInvalid = errors.New("ui: signature verification failed")
	ErrInvalidFormat    = errors.New("ui: invalid parameter format")
	ErrHydrationFailed  = errors.New("ui: hydration failed")
)

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsBadRequest checks if err stems from a malformed or tampered request.
func IsBadRequest(err error) bool {
	return IsDecryptionError(err) || errors.Is(err, ErrInvalidFormat)
}

// wrapEncodingError maps codec errors onto the package sentinels.
func wrapEncodingError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, encoding.ErrInvalidFormat):
		return ErrInvalidFormat
	case errors.Is(err, encoding.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, encoding.ErrDecryptFailed):
		return ErrDecryptFailed
	}
	return err
}
