// Package main is the entry point for the keykit command line tool.
// It wires the DSA key toolkit (generation, signing, verification, export)
// to a cobra command tree backed by the viper configuration in lib/config.
package main

import (
	"os"

	"github.com/go-keykit/keykit/lib/config"
	"github.com/go-keykit/keykit/lib/util/logger"
	"github.com/spf13/cobra"
)

var log = logger.GetLogger()

func main() {
	if err := run(); err != nil {
		log.Errorf("keykit: %s", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "keykit",
		Short: "DSA signing key toolkit",
		Long: `keykit generates DSA key pairs, signs and verifies file digests,
and exports keys as PEM or OpenSSH public key lines.

Keys live under the configured keys directory (default $HOME/.keykit/keys);
private keys are written unencrypted with 0600 permissions.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default $HOME/.keykit/config.yaml)")

	initializeCommands(rootCmd)

	return rootCmd.Execute()
}
