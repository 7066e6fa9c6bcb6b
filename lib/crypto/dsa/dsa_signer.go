package dsa

import (
	"crypto/dsa"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/asn1"
	"math/big"

	"github.com/go-keykit/keykit/lib/crypto/types"
	"github.com/samber/oops"
)

// dsaSignature is the DER signature layout: SEQUENCE { r INTEGER, s INTEGER }.
type dsaSignature struct {
	R, S *big.Int
}

// SignDigest signs a pre-computed message digest and returns the signature
// as a DER-encoded sequence of the two integers r and s. The per-signature
// nonce is drawn from crypto/rand, so repeated calls over the same digest
// yield different signatures that all verify.
func (k *DSAKey) SignDigest(digest []byte) ([]byte, error) {
	log.WithField("digest_length", len(digest)).Debug("Signing digest with DSA")

	if !k.private || k.x == nil {
		log.Error("Signing requested on public-only DSA key")
		return nil, oops.Errorf("%w: signing requires private material", ErrNotAPrivateKey)
	}

	r, s, err := dsa.Sign(rand.Reader, k.toDSAPrivateKey(), digest)
	if err != nil {
		log.WithError(err).Error("Failed to create DSA signature")
		return nil, oops.Errorf("%w: %v", ErrSigning, err)
	}

	sig, err := asn1.Marshal(dsaSignature{R: r, S: s})
	if err != nil {
		log.WithError(err).Error("Failed to DER-encode DSA signature")
		return nil, oops.Errorf("%w: %v", ErrSigning, err)
	}

	log.WithField("sig_length", len(sig)).Debug("DSA signature created successfully")
	return sig, nil
}

// DSASigner signs arbitrary data by hashing it first; the hash is chosen to
// match the subgroup size (SHA-1 for 160-bit q, SHA-256 otherwise).
type DSASigner struct {
	k *DSAKey
}

// NewSigner implements types.SigningPrivateKey.
func (k *DSAKey) NewSigner() (types.Signer, error) {
	log.Debug("Creating new DSA signer")
	if !k.private {
		return nil, oops.Errorf("%w: signer requires private material", ErrNotAPrivateKey)
	}
	return &DSASigner{k: k}, nil
}

func (ds *DSASigner) Sign(data []byte) (sig []byte, err error) {
	return ds.SignHash(digestFor(ds.k, data))
}

func (ds *DSASigner) SignHash(h []byte) (sig []byte, err error) {
	return ds.k.SignDigest(h)
}

// digestFor hashes data with the conventional digest for the key's subgroup
// size so signer and verifier agree without negotiating a hash out of band.
func digestFor(k *DSAKey, data []byte) []byte {
	if k.q != nil && k.q.BitLen() <= 160 {
		h := sha1.Sum(data)
		return h[:]
	}
	h := sha256.Sum256(data)
	return h[:]
}

var _ types.Signer = &DSASigner{}
