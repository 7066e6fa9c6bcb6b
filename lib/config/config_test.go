package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeykitConfig(t *testing.T) {
	cfg := DefaultKeykitConfig()
	assert.Equal(t, DefaultModulusBits, cfg.DefaultBits)
	assert.NotEmpty(t, cfg.KeysDir)
	assert.True(t, strings.Contains(cfg.KeysDir, KEYKIT_BASE_DIR))
}

func TestNewKeykitConfigFromViper(t *testing.T) {
	setDefaults()
	cfg := NewKeykitConfigFromViper()
	assert.Equal(t, DefaultKeykitConfig().DefaultBits, cfg.DefaultBits)
	assert.Equal(t, DefaultKeykitConfig().KeysDir, cfg.KeysDir)
}

func TestBuildKeykitDirPath(t *testing.T) {
	path := BuildKeykitDirPath()
	assert.True(t, strings.HasSuffix(path, KEYKIT_BASE_DIR))
}
