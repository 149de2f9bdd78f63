package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
)

// keysPutCmd represents the keys put command
var keysPutCmd = &cobra.Command{
	Use:   "put <pem-file>",
	Short: "Store a public key in a slot",
	Long: `Store a PEM encoded public key in one slot of the key secret.

The key is parsed before it is written, so a malformed key is never stored.
Servers pick up the change on their next token validation.

Example:
  edgectl keys put --slot next next.pub
  edgectl keys put --slot previous --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slotName, _ := cmd.Flags().GetString("slot")
		clearSlot, _ := cmd.Flags().GetBool("clear")

		slot, err := secrets.ParseSlot(slotName)
		if err != nil {
			return err
		}
		if clearSlot == (len(args) == 1) {
			return fmt.Errorf("pass either a key file or --clear")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var value string
		if !clearSlot {
			pemData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read public key: %w", err)
			}
			if _, err := keyring.ParsePublicKey(cfg.SigningAlgorithm, pemData); err != nil {
				return fmt.Errorf("invalid %s public key: %w", cfg.SigningAlgorithm, err)
			}
			value = string(pemData)
		}

		store, err := databaseStore(cfg)
		if err != nil {
			return err
		}
		if err := store.Put(cfg.PublicKeySecret, slot, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", cfg.PublicKeySecret, slot)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysPutCmd)
	keysPutCmd.Flags().String("slot", string(secrets.SlotCurrent), "slot to write (current, previous or next)")
	keysPutCmd.Flags().Bool("clear", false, "clear the slot instead of writing a key")
}
