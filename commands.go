package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-keykit/keykit/lib/config"
	"github.com/go-keykit/keykit/lib/crypto/dsa"
	"github.com/go-keykit/keykit/lib/crypto/types"
	"github.com/go-keykit/keykit/lib/keys"
	"github.com/go-keykit/keykit/lib/util"
	"github.com/spf13/cobra"
)

func initializeCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(exportPubCmd())
	rootCmd.AddCommand(inspectCmd())
}

func keysDirFlag(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("keys-dir"); dir != "" {
		return dir
	}
	return config.NewKeykitConfigFromViper().KeysDir
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a new DSA key pair and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bits, _ := cmd.Flags().GetInt("bits")
			if bits == 0 {
				bits = config.NewKeykitConfigFromViper().DefaultBits
			}
			dir := keysDirFlag(cmd)

			force, _ := cmd.Flags().GetBool("force")
			keyPath := filepath.Join(dir, args[0]+".pem")
			if util.CheckFileExists(keyPath) && !force {
				return fmt.Errorf("key file %s already exists (use --force to overwrite)", keyPath)
			}

			key, err := dsa.GenerateKey(bits)
			if err != nil {
				return err
			}
			ks := keys.NewDSAKeyStore(dir, args[0], key)
			if err := ks.StoreKeys(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d-bit DSA key %q in %s\n", bits, args[0], dir)
			return nil
		},
	}
	cmd.Flags().Int("bits", 0, "modulus size in bits (1024, 2048 or 3072)")
	cmd.Flags().Bool("force", false, "overwrite an existing key of the same name")
	cmd.Flags().String("keys-dir", "", "directory to store the key in")
	return cmd
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <name> <file>",
		Short: "Sign a file with a stored private key",
		Long:  "Hashes the file and signs the digest; the DER signature is written next to the input as <file>.sig unless --output is given.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := keys.LoadDSAKeyStore(keysDirFlag(cmd), args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Clean(args[1]))
			if err != nil {
				return err
			}

			signer, err := ks.Key().NewSigner()
			if err != nil {
				return err
			}
			sig, err := signer.Sign(data)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = args[1] + ".sig"
			}
			if err := os.WriteFile(out, sig, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d-byte signature to %s\n", len(sig), out)
			return nil
		},
	}
	cmd.Flags().String("output", "", "signature output path")
	cmd.Flags().String("keys-dir", "", "directory the key is stored in")
	return cmd
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <name> <file> <signature>",
		Short: "Verify a signature over a file",
		Long: `Verifies the signature file against the named key.
Exits 0 when the signature is valid, 1 when it is rejected and 2 when the
signature could not be checked at all (unreadable input, broken encoding).`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fail := func(err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err)
				os.Exit(2)
			}
			ks, err := keys.LoadDSAKeyStore(keysDirFlag(cmd), args[0])
			if err != nil {
				fail(err)
			}
			data, err := os.ReadFile(filepath.Clean(args[1]))
			if err != nil {
				fail(err)
			}
			sig, err := os.ReadFile(filepath.Clean(args[2]))
			if err != nil {
				fail(err)
			}

			verifier, err := ks.Key().NewVerifier()
			if err != nil {
				fail(err)
			}
			switch err := verifier.Verify(data, sig); {
			case err == nil:
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			case errors.Is(err, types.ErrInvalidSignature):
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				os.Exit(1)
			default:
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err)
				os.Exit(2)
			}
			return nil
		},
	}
	cmd.Flags().String("keys-dir", "", "directory the key is stored in")
	return cmd
}

func exportPubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-pub <name>",
		Short: "Export the public half of a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := keys.LoadDSAKeyStore(keysDirFlag(cmd), args[0])
			if err != nil {
				return err
			}

			var path string
			if sshFormat, _ := cmd.Flags().GetBool("ssh"); sshFormat {
				path, err = ks.ExportAuthorizedKey()
			} else {
				path, err = ks.ExportPublicPEM()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote public key to %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("ssh", false, "emit an OpenSSH authorized_keys line instead of PEM")
	cmd.Flags().String("keys-dir", "", "directory the key is stored in")
	return cmd
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <name>",
		Short: "Show the attributes of a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := keys.LoadDSAKeyStore(keysDirFlag(cmd), args[0])
			if err != nil {
				return err
			}
			key := ks.Key()
			attrs, err := key.PublicAttributes()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "key id:   %s\n", ks.KeyID())
			fmt.Fprintf(w, "private:  %v\n", key.IsPrivate())
			fmt.Fprintf(w, "modulus:  %d bytes\n", key.Size())
			fmt.Fprintf(w, "p: %s\n", hex.EncodeToString(attrs.P))
			fmt.Fprintf(w, "q: %s\n", hex.EncodeToString(attrs.Q))
			fmt.Fprintf(w, "g: %s\n", hex.EncodeToString(attrs.G))
			fmt.Fprintf(w, "y: %s\n", hex.EncodeToString(attrs.Y))
			return nil
		},
	}
	cmd.Flags().String("keys-dir", "", "directory the key is stored in")
	return cmd
}
