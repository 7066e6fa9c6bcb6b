package config

import (
	"path/filepath"
)

// Defaults favor the classic DSA profile (1024-bit modulus, 160-bit subgroup,
// SHA-1 digests), matching what the signature format interoperates with.
// Larger moduli can be requested per invocation.
const DefaultModulusBits = 1024

func defaultKeysDir() string {
	return filepath.Join(BuildKeykitDirPath(), "keys")
}

var defaultKeykitConfig = &KeykitConfig{
	KeysDir:     defaultKeysDir(),
	DefaultBits: DefaultModulusBits,
}

func DefaultKeykitConfig() *KeykitConfig {
	return defaultKeykitConfig
}
