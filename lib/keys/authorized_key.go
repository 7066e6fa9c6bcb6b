package keys

import (
	stddsa "crypto/dsa"
	"math/big"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"golang.org/x/crypto/ssh"
)

// ExportAuthorizedKey writes the public half as a single OpenSSH
// authorized_keys line (ssh-dss) at <dir>/<name>.pub and returns its path.
func (ks *DSAKeyStore) ExportAuthorizedKey() (string, error) {
	attrs, err := ks.key.PublicAttributes()
	if err != nil {
		return "", err
	}

	sshKey, err := ssh.NewPublicKey(&stddsa.PublicKey{
		Parameters: stddsa.Parameters{
			P: new(big.Int).SetBytes(attrs.P),
			Q: new(big.Int).SetBytes(attrs.Q),
			G: new(big.Int).SetBytes(attrs.G),
		},
		Y: new(big.Int).SetBytes(attrs.Y),
	})
	if err != nil {
		log.WithError(err).Error("Failed to build SSH public key")
		return "", oops.Errorf("failed to build SSH public key: %w", err)
	}

	path := filepath.Join(ks.dir, ks.name+".pub")
	if err := ensureDirectoryExists(ks.dir); err != nil {
		return "", oops.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, ssh.MarshalAuthorizedKey(sshKey), 0o644); err != nil {
		log.WithError(err).WithField("path", path).Error("Failed to write authorized key file")
		return "", oops.Errorf("failed to write authorized key file: %w", err)
	}
	log.WithField("file", path).Debug("Exported OpenSSH public key")
	return path, nil
}
