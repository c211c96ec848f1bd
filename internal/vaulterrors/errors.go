// Package vaulterrors defines the typed error families every core component
// returns. Callers use errors.Is/errors.As; untrusted surfaces (the CLI,
// a future HTTP admin surface) must never print anything but a generic
// message for these — see Public.
package vaulterrors

import "errors"

// AuthError sentinels.
var (
	ErrBadPassphrase = errors.New("auth: bad passphrase")
	ErrLocked = errors.New("auth: vault locked")
	ErrSecondFactorRequired = errors.New("auth: second factor required")
	ErrSecondFactorBad = errors.New("auth: second factor rejected")
)

// VaultError sentinels.
var (
	ErrNotInitialized = errors.New("vault: not initialized")
	ErrAlreadyInitialized = errors.New("vault: already initialized")
	ErrNotFound = errors.New("vault: record not found")
	ErrCorrupt = errors.New("vault: corrupt")
	ErrConflict = errors.New("vault: conflict")
)

// CryptoError sentinels.
var (
	ErrTampered = errors.New("crypto: tampered or wrong key")
	ErrKdfFail = errors.New("crypto: key derivation failed")
	ErrRngFail = errors.New("crypto: random generation failed")
)

// StegoError sentinels.
var (
	ErrCarrierTooSmall = errors.New("stego: carrier too small")
	ErrNoPayload = errors.New("stego: no payload present")
	ErrTruncated = errors.New("stego: truncated payload")
	ErrStegoCorrupt = errors.New("stego: checksum mismatch")
	ErrInvalidImage = errors.New("stego: invalid or unsupported image")
)

// FragmentError sentinels.
var (
	ErrTooManyFragments = errors.New("fragment: too many fragments")
	ErrFragmentMissing = errors.New("fragment: missing index")
	ErrFragmentDuplicate = errors.New("fragment: duplicate index")
	ErrFragmentCorrupt = errors.New("fragment: checksum mismatch")
	ErrFragmentTruncated = errors.New("fragment: truncated buffer")
)

// NotFound wraps ErrNotFound with the offending id.
type NotFound struct{ ID string }

func (e *NotFound) Error() string { return "vault: record not found: " + e.ID }
func (e *NotFound) Unwrap() error { return ErrNotFound }

// Public renders a generic message suitable for an untrusted surface. The
// real error is expected to have already been routed to the local log
// sink by the caller before Public is used.
func Public(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrBadPassphrase), errors.Is(err, ErrLocked),
		errors.Is(err, ErrSecondFactorRequired), errors.Is(err, ErrSecondFactorBad):
		return "authentication failed"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrAlreadyInitialized), errors.Is(err, ErrNotInitialized),
		errors.Is(err, ErrConflict), errors.Is(err, ErrCorrupt):
		return "internal error"
	default:
		return "internal error"
	}
}
