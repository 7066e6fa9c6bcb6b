package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/go-keykit/keykit/lib/crypto/dsa"
	"github.com/go-keykit/keykit/lib/util/logger"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

var log = logger.GetLogger()

// On-disk layout:
//
//	<dir>/<name>.pem       unencrypted DSA private key, PEM, 0600
//	<dir>/<name>.pub.pem   SubjectPublicKeyInfo PEM, 0644 (on ExportPublicPEM)
//	<dir>/<name>.pub       OpenSSH ssh-dss line (on ExportAuthorizedKey)
//
// Directories are created with 0700. A key file that exists but cannot be
// parsed is surfaced as an error, never silently replaced: regenerating
// would change the identity everything downstream has already pinned.

// DSAKeyStore owns one named DSA key and its on-disk representation.
type DSAKeyStore struct {
	dir  string
	name string
	key  *dsa.DSAKey
}

// NewDSAKeyStore wraps an existing key for persistence under dir/name.
func NewDSAKeyStore(dir, name string, key *dsa.DSAKey) *DSAKeyStore {
	log.WithFields(logrus.Fields{
		"at":   "NewDSAKeyStore",
		"dir":  dir,
		"name": name,
	}).Debug("Creating new DSA key store")
	return &DSAKeyStore{dir: dir, name: name, key: key}
}

// Key returns the stored key handle.
func (ks *DSAKeyStore) Key() *dsa.DSAKey {
	return ks.key
}

// KeyID returns a stable short identifier derived from the public value.
func (ks *DSAKeyStore) KeyID() string {
	if ks.name != "" {
		return ks.name
	}
	sum := sha256.Sum256(ks.key.Bytes())
	return hex.EncodeToString(sum[:5])
}

func (ks *DSAKeyStore) privateKeyPath() string {
	return filepath.Join(ks.dir, ks.name+".pem")
}

// StoreKeys persists the key to disk in PEM form.
func (ks *DSAKeyStore) StoreKeys() error {
	log.WithFields(logrus.Fields{
		"at":   "DSAKeyStore.StoreKeys",
		"dir":  ks.dir,
		"name": ks.name,
	}).Debug("Storing DSA key to disk")

	if err := ensureDirectoryExists(ks.dir); err != nil {
		return oops.Errorf("failed to create key directory: %w", err)
	}

	if err := ks.key.WritePEM(ks.privateKeyPath()); err != nil {
		log.WithError(err).Error("Failed to write DSA key file")
		return err
	}

	log.WithField("file", ks.privateKeyPath()).Debug("Successfully stored DSA key")
	return nil
}

// ExportPublicPEM writes the public half next to the private key file as
// <name>.pub.pem and returns its path.
func (ks *DSAKeyStore) ExportPublicPEM() (string, error) {
	pub, err := ks.key.Public()
	if err != nil {
		return "", err
	}
	pubKey, ok := pub.(*dsa.DSAKey)
	if !ok {
		return "", oops.Errorf("unexpected public key type %T", pub)
	}

	path := filepath.Join(ks.dir, ks.name+".pub.pem")
	if err := ensureDirectoryExists(ks.dir); err != nil {
		return "", oops.Errorf("failed to create key directory: %w", err)
	}
	if err := pubKey.WritePEM(path); err != nil {
		return "", err
	}
	log.WithField("file", path).Debug("Exported public DSA key PEM")
	return path, nil
}

// LoadDSAKeyStore loads a previously persisted DSA key from disk.
func LoadDSAKeyStore(dir, name string) (*DSAKeyStore, error) {
	log.WithFields(logrus.Fields{
		"at":   "LoadDSAKeyStore",
		"dir":  dir,
		"name": name,
	}).Debug("Loading DSA key from disk")

	filename := filepath.Join(dir, name+".pem")
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.Errorf("key file not found: %s", filename)
		}
		return nil, oops.Errorf("failed to read key file: %w", err)
	}

	key, err := dsa.ParsePEM(data)
	if err != nil {
		return nil, oops.Errorf("failed to parse key file %s: %w", filename, err)
	}

	log.WithField("at", "LoadDSAKeyStore").Debug("Successfully loaded DSA key")
	return &DSAKeyStore{dir: dir, name: name, key: key}, nil
}

// LoadOrCreateDSAKeyStore loads an existing key or, when no key file exists,
// generates a fresh private key of the given modulus size and persists it.
// A corrupt or unreadable existing file is an error instead of a trigger for
// regeneration, so an established key identity is never silently lost.
func LoadOrCreateDSAKeyStore(dir, name string, bits int) (*DSAKeyStore, error) {
	log.WithFields(logrus.Fields{
		"at":   "LoadOrCreateDSAKeyStore",
		"dir":  dir,
		"name": name,
	}).Debug("Loading or creating DSA key store")

	ks, err := LoadDSAKeyStore(dir, name)
	if err == nil {
		log.Debug("Loaded existing DSA key store")
		return ks, nil
	}

	filename := filepath.Join(dir, name+".pem")
	if _, statErr := os.Stat(filename); statErr == nil || !os.IsNotExist(statErr) {
		if statErr == nil {
			return nil, oops.Errorf("key file exists but could not be loaded (refusing to overwrite): %w", err)
		}
		return nil, oops.Errorf("cannot verify key file status: %w", statErr)
	}

	key, err := dsa.GenerateKey(bits)
	if err != nil {
		return nil, err
	}
	ks = NewDSAKeyStore(dir, name, key)
	if err := ks.StoreKeys(); err != nil {
		return nil, err
	}
	log.WithField("file", filename).Debug("Generated and stored new DSA key")
	return ks, nil
}

func ensureDirectoryExists(dir string) error {
	// 0700: key material must not be readable by other users
	return os.MkdirAll(dir, 0o700)
}
