package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// keysListCmd represents the keys list command
var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the fingerprints of the active public keys",
	Long: `List the fingerprints of the public keys a server would accept, in the
order they are tried.

Example:
  edgectl keys list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		store, err := openSecretStore(ctx, cfg)
		if err != nil {
			return err
		}
		ring, err := newRing(store, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Secret: %s (%s)\n", ring.SecretPath(), ring.Algorithm())
		for _, k := range ring.CurrentKeys() {
			fmt.Fprintln(out, k.Fingerprint)
		}
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysListCmd)
}
