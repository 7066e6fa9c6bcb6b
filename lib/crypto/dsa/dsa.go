package dsa

import (
	"crypto/dsa"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/go-keykit/keykit/lib/crypto/types"
	"github.com/go-keykit/keykit/lib/util/logger"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

var log = logger.GetLogger()

// Sentinels are plain errors so errors.Is can tell them apart; failure sites
// wrap them with oops to attach the captured diagnostic text. An oops-made
// sentinel would match any other oops error under errors.Is, which collapses
// the valid/invalid/error distinction Verify callers rely on.
var (
	ErrKeyMaterialInvalid  = errors.New("invalid DSA key material")
	ErrKeyMaterialMissing  = errors.New("missing DSA key material")
	ErrNotAPrivateKey      = errors.New("operation requires a private key")
	ErrParameterGeneration = errors.New("DSA parameter generation failed")
	ErrKeyPairGeneration   = errors.New("DSA key pair generation failed")
	ErrSigning             = errors.New("DSA signing failed")
	ErrVerification        = errors.New("DSA verification failed")
	ErrFileOpen            = errors.New("failed to open destination file")
	ErrPEMEncoding         = errors.New("PEM encoding failed")
)

// IntermediateKey carries a DSA key's components as minimal big-endian byte
// sequences, the interchange format used by key containers and serializers.
// X is nil for public-only keys.
type IntermediateKey struct {
	P []byte
	Q []byte
	G []byte
	Y []byte
	X []byte
}

// DSAKey holds a DSA key's mathematical material. The private value x is set
// if and only if the key was constructed or generated as a private key.
// No field is mutated after construction, so a DSAKey may be shared between
// goroutines for signing, verification, export and comparison.
type DSAKey struct {
	p, q, g, y *big.Int
	x          *big.Int
	private    bool
}

// NewKeyFromAttributes builds a DSAKey from raw big-endian components.
// When private is true the X component is required as well; the resulting
// key is permanently private. Empty or absent components are rejected with
// ErrKeyMaterialInvalid before any further processing.
func NewKeyFromAttributes(attrs *IntermediateKey, private bool) (*DSAKey, error) {
	if attrs == nil {
		return nil, oops.Errorf("%w: nil attribute record", ErrKeyMaterialInvalid)
	}

	k := &DSAKey{}
	var err error
	if k.p, err = bytesToBigInt("p", attrs.P); err != nil {
		return nil, err
	}
	if k.q, err = bytesToBigInt("q", attrs.Q); err != nil {
		return nil, err
	}
	if k.g, err = bytesToBigInt("g", attrs.G); err != nil {
		return nil, err
	}
	if k.y, err = bytesToBigInt("y", attrs.Y); err != nil {
		return nil, err
	}

	if !private {
		log.WithField("modulus_bits", k.p.BitLen()).Debug("Constructed public DSA key from attributes")
		return k, nil
	}

	if k.x, err = bytesToBigInt("x", attrs.X); err != nil {
		return nil, err
	}
	k.private = true
	log.WithField("modulus_bits", k.p.BitLen()).Debug("Constructed private DSA key from attributes")
	return k, nil
}

// GenerateKey produces a fresh private DSA key with a modulus of the
// requested bit length. Domain parameters are searched probabilistically,
// so this call blocks for a variable and potentially long time; it offers
// no cancellation point and callers needing responsiveness must run it on
// a worker they are prepared to abandon.
func GenerateKey(bits int) (*DSAKey, error) {
	log.WithField("modulus_bits", bits).Debug("Generating DSA key pair")

	var sizes dsa.ParameterSizes
	switch bits {
	case 1024:
		sizes = dsa.L1024N160
	case 2048:
		sizes = dsa.L2048N256
	case 3072:
		sizes = dsa.L3072N256
	default:
		return nil, oops.Errorf("%w: unsupported modulus size %d", ErrParameterGeneration, bits)
	}

	priv := new(dsa.PrivateKey)
	if err := dsa.GenerateParameters(&priv.Parameters, rand.Reader, sizes); err != nil {
		log.WithError(err).Error("DSA parameter generation failed")
		return nil, oops.Errorf("%w: %v", ErrParameterGeneration, err)
	}
	if err := dsa.GenerateKey(priv, rand.Reader); err != nil {
		log.WithError(err).Error("DSA key pair generation failed")
		return nil, oops.Errorf("%w: %v", ErrKeyPairGeneration, err)
	}

	log.WithFields(logrus.Fields{
		"modulus_bits":  priv.P.BitLen(),
		"subgroup_bits": priv.Q.BitLen(),
	}).Debug("DSA key pair generated successfully")

	return &DSAKey{
		p:       priv.P,
		q:       priv.Q,
		g:       priv.G,
		y:       priv.Y,
		x:       priv.X,
		private: true,
	}, nil
}

// IsPrivate reports whether private key material is present.
func (k *DSAKey) IsPrivate() bool {
	return k.private
}

// Size returns the modulus length in bytes, the upper bound on the DER
// signature size produced by SignDigest.
func (k *DSAKey) Size() int {
	if k.p == nil {
		return 0
	}
	return (k.p.BitLen() + 7) / 8
}

// Len implements types.SigningPublicKey.
func (k *DSAKey) Len() int {
	return k.Size()
}

// Bytes implements types.SigningPublicKey.
// Returns the minimal big-endian encoding of the public value y.
func (k *DSAKey) Bytes() []byte {
	if k.y == nil {
		return nil
	}
	return k.y.Bytes()
}

// Attributes exports all five key components as minimal big-endian byte
// sequences. Fails with ErrNotAPrivateKey when no private material is held.
func (k *DSAKey) Attributes() (*IntermediateKey, error) {
	if !k.private || k.x == nil {
		log.Error("Private attribute export requested on public-only DSA key")
		return nil, oops.Errorf("%w: private attributes unavailable", ErrNotAPrivateKey)
	}
	attrs, err := k.PublicAttributes()
	if err != nil {
		return nil, err
	}
	attrs.X = k.x.Bytes()
	return attrs, nil
}

// PublicAttributes exports the four public components as minimal big-endian
// byte sequences. The X field of the result is left nil.
func (k *DSAKey) PublicAttributes() (*IntermediateKey, error) {
	if k.p == nil || k.q == nil || k.g == nil || k.y == nil {
		log.Error("DSA key is missing public components")
		return nil, oops.Errorf("%w: incomplete public material", ErrKeyMaterialMissing)
	}
	return &IntermediateKey{
		P: k.p.Bytes(),
		Q: k.q.Bytes(),
		G: k.g.Bytes(),
		Y: k.y.Bytes(),
	}, nil
}

// Public implements types.SigningPrivateKey.
// Returns a public-only view of this key; the view never compares equal to
// the private original because the private flags differ.
func (k *DSAKey) Public() (types.SigningPublicKey, error) {
	attrs, err := k.PublicAttributes()
	if err != nil {
		return nil, err
	}
	pub, err := NewKeyFromAttributes(attrs, false)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// Equals compares two keys numerically. Keys with differing private flags are
// never equal; byte-level padding differences in the material they were built
// from do not affect the result.
func (k *DSAKey) Equals(other *DSAKey) bool {
	if other == nil || k.private != other.private {
		return false
	}
	if !bigIntEqual(k.p, other.p) || !bigIntEqual(k.q, other.q) ||
		!bigIntEqual(k.g, other.g) || !bigIntEqual(k.y, other.y) {
		return false
	}
	if !k.private {
		return true
	}
	return bigIntEqual(k.x, other.x)
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

func bytesToBigInt(name string, raw []byte) (*big.Int, error) {
	if len(raw) == 0 {
		log.WithField("component", name).Error("Empty DSA key component")
		return nil, oops.Errorf("%w: component %s is empty", ErrKeyMaterialInvalid, name)
	}
	return new(big.Int).SetBytes(raw), nil
}

// toDSAPublicKey assembles a stdlib public key view over the shared big.Int
// values. The stdlib type is only read by dsa.Verify, so sharing is safe.
func (k *DSAKey) toDSAPublicKey() *dsa.PublicKey {
	return &dsa.PublicKey{
		Parameters: dsa.Parameters{P: k.p, Q: k.q, G: k.g},
		Y:          k.y,
	}
}

func (k *DSAKey) toDSAPrivateKey() *dsa.PrivateKey {
	return &dsa.PrivateKey{
		PublicKey: *k.toDSAPublicKey(),
		X:         k.x,
	}
}

var _ types.SigningPrivateKey = &DSAKey{}
var _ types.SigningPublicKey = &DSAKey{}
