package dsa

import (
	"crypto/dsa"
	"encoding/asn1"
	"errors"

	"github.com/go-keykit/keykit/lib/crypto/types"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// VerifyDigest checks a DER-encoded signature against a pre-computed digest.
// Three outcomes are distinguished:
//
//	(true, nil)   the signature is valid for this key
//	(false, nil)  the signature decoded but the verification equations fail
//	(false, err)  the signature encoding itself is broken (ErrVerification)
//
// Callers must not collapse the last two: a rejected signature is a normal
// negative answer, a malformed one indicates corrupted input.
func (k *DSAKey) VerifyDigest(digest, sig []byte) (bool, error) {
	log.WithFields(logrus.Fields{
		"digest_length": len(digest),
		"sig_length":    len(sig),
	}).Debug("Verifying DSA signature")

	if k.p == nil || k.q == nil || k.g == nil || k.y == nil {
		return false, oops.Errorf("%w: incomplete public material", ErrKeyMaterialMissing)
	}

	var sigVal dsaSignature
	rest, err := asn1.Unmarshal(sig, &sigVal)
	if err != nil {
		log.WithError(err).Error("Malformed DSA signature encoding")
		return false, oops.Errorf("%w: malformed signature encoding: %v", ErrVerification, err)
	}
	if len(rest) != 0 {
		log.WithField("trailing_bytes", len(rest)).Error("Trailing data after DSA signature")
		return false, oops.Errorf("%w: %d trailing bytes after signature", ErrVerification, len(rest))
	}
	if sigVal.R.Sign() <= 0 || sigVal.S.Sign() <= 0 {
		log.Error("DSA signature integers out of range")
		return false, oops.Errorf("%w: signature integers must be positive", ErrVerification)
	}

	if dsa.Verify(k.toDSAPublicKey(), digest, sigVal.R, sigVal.S) {
		log.Debug("DSA signature verified successfully")
		return true, nil
	}
	log.Warn("Invalid DSA signature")
	return false, nil
}

// DSAVerifier adapts a public key to the types.Verifier interface, hashing
// unhashed input with the same digest the matching signer uses.
type DSAVerifier struct {
	k *DSAKey
}

// NewVerifier implements types.SigningPublicKey.
func (k *DSAKey) NewVerifier() (types.Verifier, error) {
	log.Debug("Creating new DSA verifier")
	if k.p == nil || k.q == nil || k.g == nil || k.y == nil {
		return nil, types.ErrInvalidKeyFormat
	}
	return &DSAVerifier{k: k}, nil
}

func (v *DSAVerifier) Verify(data, sig []byte) error {
	return v.VerifyHash(digestFor(v.k, data), sig)
}

func (v *DSAVerifier) VerifyHash(h, sig []byte) error {
	ok, err := v.k.VerifyDigest(h, sig)
	if err != nil {
		if errors.Is(err, ErrVerification) {
			return types.ErrBadSignatureSize
		}
		return err
	}
	if !ok {
		return types.ErrInvalidSignature
	}
	return nil
}

var _ types.Verifier = &DSAVerifier{}
