// Command ccnput publishes one signed Content Object, read from stdin,
// under a given name (§6: "put publishes one signed Content Object from
// stdin under a given name"). Exits 0 on success, 1 on any error.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Atsuko87/ccnx-sub001/client"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

var (
	addr               string
	keychain           string
	identity           string
	freshness          uint64
	keychainPassphrase string
)

var rootCmd = &cobra.Command{
	Use:   "ccnput NAME",
	Short: "Publish a signed Content Object from stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&addr, "forwarder", "127.0.0.1:4485", "forwarder address")
	rootCmd.Flags().StringVar(&keychain, "keychain", "", "keychain database path")
	rootCmd.Flags().StringVar(&identity, "identity", "/local/ccnput", "signing identity")
	rootCmd.Flags().Uint64Var(&freshness, "freshness", 0, "freshness in seconds (0 = unset)")
	rootCmd.Flags().StringVar(&keychainPassphrase, "keychain-passphrase", "", "unseal --keychain's private keys with this passphrase")
}

func run(cmd *cobra.Command, args []string) error {
	n, err := name.FromURI(args[0])
	if err != nil {
		return fmt.Errorf("ccnput: bad name: %w", err)
	}

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("ccnput: reading stdin: %w", err)
	}

	signer, err := loadSigner()
	if err != nil {
		return err
	}

	c, err := client.Dial(addr)
	if err != nil {
		return fmt.Errorf("ccnput: %w", err)
	}
	defer c.Close()

	var fp *uint64
	if freshness > 0 {
		fp = &freshness
	}
	if err := c.Put(n, payload, fp, signer); err != nil {
		return fmt.Errorf("ccnput: %w", err)
	}
	return nil
}

func loadSigner() (sec.Signer, error) {
	idName, err := name.FromURI(identity)
	if err != nil {
		return nil, fmt.Errorf("ccnput: bad identity: %w", err)
	}
	if keychain == "" {
		// An ephemeral identity: fine for a one-shot publish where the
		// repository's policy only cares about the namespace, not who signed
		// it, but any caller that needs its key trusted should pass
		// --keychain.
		signer, _, err := sec.KeygenEd25519(idName.Append(name.Component("KEY"), name.Component("default")))
		return signer, err
	}
	kc, err := sec.OpenKeychain(keychain)
	if err != nil {
		return nil, fmt.Errorf("ccnput: opening keychain: %w", err)
	}
	defer kc.Close()
	if keychainPassphrase != "" {
		if err := kc.UsePassphrase([]byte(keychainPassphrase)); err != nil {
			return nil, fmt.Errorf("ccnput: %w", err)
		}
	}
	return kc.DefaultKey(idName)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
