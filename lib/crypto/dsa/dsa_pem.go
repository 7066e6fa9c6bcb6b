package dsa

import (
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"os"

	"github.com/samber/oops"
)

const (
	pemTypePrivate = "DSA PRIVATE KEY"
	pemTypePublic  = "PUBLIC KEY"
)

// id-dsa, the DSA signature-key OID used in SubjectPublicKeyInfo.
var oidPublicKeyDSA = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}

// OpenSSL traditional private key layout:
//
//	DSAPrivateKey ::= SEQUENCE { version INTEGER, p, q, g, y, x INTEGER }
type dsaPrivateKeyASN1 struct {
	Version int
	P, Q, G *big.Int
	Y, X    *big.Int
}

type dsaParameters struct {
	P, Q, G *big.Int
}

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

// X.509 SubjectPublicKeyInfo; the bit string wraps a DER INTEGER holding y.
type subjectPublicKeyInfo struct {
	Algorithm algorithmIdentifier
	PublicKey asn1.BitString
}

// EncodePEM renders the key as a PEM block: the unencrypted OpenSSL
// traditional "DSA PRIVATE KEY" form for private keys, or a
// SubjectPublicKeyInfo "PUBLIC KEY" block for public-only keys.
func (k *DSAKey) EncodePEM() ([]byte, error) {
	if k.p == nil || k.q == nil || k.g == nil || k.y == nil {
		return nil, oops.Errorf("%w: incomplete public material", ErrKeyMaterialMissing)
	}

	var block *pem.Block
	if k.private {
		der, err := asn1.Marshal(dsaPrivateKeyASN1{
			Version: 0,
			P:       k.p, Q: k.q, G: k.g,
			Y: k.y, X: k.x,
		})
		if err != nil {
			log.WithError(err).Error("Failed to DER-encode DSA private key")
			return nil, oops.Errorf("%w: %v", ErrPEMEncoding, err)
		}
		block = &pem.Block{Type: pemTypePrivate, Bytes: der}
	} else {
		der, err := marshalDSAPublicKeyInfo(k)
		if err != nil {
			return nil, err
		}
		block = &pem.Block{Type: pemTypePublic, Bytes: der}
	}

	return pem.EncodeToMemory(block), nil
}

func marshalDSAPublicKeyInfo(k *DSAKey) ([]byte, error) {
	paramDER, err := asn1.Marshal(dsaParameters{P: k.p, Q: k.q, G: k.g})
	if err != nil {
		log.WithError(err).Error("Failed to DER-encode DSA parameters")
		return nil, oops.Errorf("%w: %v", ErrPEMEncoding, err)
	}
	yDER, err := asn1.Marshal(k.y)
	if err != nil {
		log.WithError(err).Error("Failed to DER-encode DSA public value")
		return nil, oops.Errorf("%w: %v", ErrPEMEncoding, err)
	}
	der, err := asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: algorithmIdentifier{
			Algorithm:  oidPublicKeyDSA,
			Parameters: asn1.RawValue{FullBytes: paramDER},
		},
		PublicKey: asn1.BitString{Bytes: yDER, BitLength: len(yDER) * 8},
	})
	if err != nil {
		log.WithError(err).Error("Failed to DER-encode DSA public key info")
		return nil, oops.Errorf("%w: %v", ErrPEMEncoding, err)
	}
	return der, nil
}

// WritePEM writes the key to path, creating or truncating the file. Private
// keys are written unencrypted with 0600 permissions; callers wanting
// passphrase protection must layer it above this package.
func (k *DSAKey) WritePEM(path string) error {
	log.WithField("path", path).Debug("Writing DSA key to PEM file")

	data, err := k.EncodePEM()
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if k.private {
		mode = 0o600
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		log.WithError(err).WithField("path", path).Error("Failed to open PEM destination")
		return oops.Errorf("%w: %v", ErrFileOpen, err)
	}
	defer f.Close()

	// The open mode only applies when the file is created; an overwritten
	// file keeps its old permissions, which may be wider than key material
	// allows.
	if err := f.Chmod(mode); err != nil {
		log.WithError(err).WithField("path", path).Error("Failed to set PEM file permissions")
		return oops.Errorf("%w: %v", ErrFileOpen, err)
	}

	if _, err := f.Write(data); err != nil {
		log.WithError(err).WithField("path", path).Error("Failed to write PEM data")
		return oops.Errorf("%w: %v", ErrPEMEncoding, err)
	}
	log.WithField("path", path).Debug("DSA key written to PEM file")
	return nil
}

// ParsePEM decodes a key previously produced by EncodePEM or WritePEM,
// accepting both the private and the public block type.
func ParsePEM(data []byte) (*DSAKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, oops.Errorf("%w: no PEM block found", ErrKeyMaterialInvalid)
	}

	switch block.Type {
	case pemTypePrivate:
		return parsePrivateKeyDER(block.Bytes)
	case pemTypePublic:
		return parsePublicKeyDER(block.Bytes)
	default:
		return nil, oops.Errorf("%w: unsupported PEM block type %q", ErrKeyMaterialInvalid, block.Type)
	}
}

func parsePrivateKeyDER(der []byte) (*DSAKey, error) {
	var key dsaPrivateKeyASN1
	if rest, err := asn1.Unmarshal(der, &key); err != nil {
		log.WithError(err).Error("Failed to parse DSA private key DER")
		return nil, oops.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
	} else if len(rest) != 0 {
		return nil, oops.Errorf("%w: trailing data after private key", ErrKeyMaterialInvalid)
	}
	return NewKeyFromAttributes(&IntermediateKey{
		P: key.P.Bytes(),
		Q: key.Q.Bytes(),
		G: key.G.Bytes(),
		Y: key.Y.Bytes(),
		X: key.X.Bytes(),
	}, true)
}

func parsePublicKeyDER(der []byte) (*DSAKey, error) {
	var info subjectPublicKeyInfo
	if rest, err := asn1.Unmarshal(der, &info); err != nil {
		log.WithError(err).Error("Failed to parse public key DER")
		return nil, oops.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
	} else if len(rest) != 0 {
		return nil, oops.Errorf("%w: trailing data after public key", ErrKeyMaterialInvalid)
	}
	if !info.Algorithm.Algorithm.Equal(oidPublicKeyDSA) {
		return nil, oops.Errorf("%w: unexpected key algorithm %v", ErrKeyMaterialInvalid, info.Algorithm.Algorithm)
	}

	var params dsaParameters
	if _, err := asn1.Unmarshal(info.Algorithm.Parameters.FullBytes, &params); err != nil {
		log.WithError(err).Error("Failed to parse DSA parameters")
		return nil, oops.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
	}
	y := new(big.Int)
	if _, err := asn1.Unmarshal(info.PublicKey.RightAlign(), &y); err != nil {
		log.WithError(err).Error("Failed to parse DSA public value")
		return nil, oops.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
	}

	return NewKeyFromAttributes(&IntermediateKey{
		P: params.P.Bytes(),
		Q: params.Q.Bytes(),
		G: params.G.Bytes(),
		Y: y.Bytes(),
	}, false)
}
