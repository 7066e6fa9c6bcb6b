package config

import (
	"os"
	"path/filepath"

	"github.com/go-keykit/keykit/lib/util"
	"github.com/go-keykit/keykit/lib/util/logger"
	"github.com/spf13/viper"
)

var (
	CfgFile string
	log     = logger.GetLogger()
)

const KEYKIT_BASE_DIR = ".keykit"

// KeykitConfig holds the resolved toolkit configuration.
type KeykitConfig struct {
	// directory where generated keys are stored
	KeysDir string
	// modulus size in bits used when no explicit size is requested
	DefaultBits int
}

func InitConfig() {
	if CfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(CfgFile)
	} else {
		// Set up viper to use the default config path $HOME/.keykit/
		viper.AddConfigPath(BuildKeykitDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	handleConfigFile()
}

func setDefaults() {
	viper.SetDefault("keys_dir", DefaultKeykitConfig().KeysDir)
	viper.SetDefault("default_bits", DefaultKeykitConfig().DefaultBits)
}

// NewKeykitConfigFromViper builds a KeykitConfig from current viper settings.
func NewKeykitConfigFromViper() *KeykitConfig {
	return &KeykitConfig{
		KeysDir:     viper.GetString("keys_dir"),
		DefaultBits: viper.GetInt("default_bits"),
	}
}

func createDefaultConfig(defaultConfigDir string) {
	defaultConfigFile := filepath.Join(defaultConfigDir, "config.yaml")
	// Ensure directory exists
	if err := os.MkdirAll(defaultConfigDir, 0o755); err != nil {
		log.Fatalf("Could not create config directory: %s", err)
	}

	// Write current config file
	if err := viper.WriteConfigAs(defaultConfigFile); err != nil {
		log.Fatalf("Could not write default config file: %s", err)
	}

	log.Debugf("Created default configuration at: %s", defaultConfigFile)
}

func handleConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if CfgFile != "" {
				log.Fatalf("Config file %s is not found: %s", CfgFile, err)
			} else {
				createDefaultConfig(BuildKeykitDirPath())
			}
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	} else {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

func BuildKeykitDirPath() string {
	return filepath.Join(util.UserHome(), KEYKIT_BASE_DIR)
}
