package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// keysRotateCmd represents the keys rotate command
var keysRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Promote the next key to current",
	Long: `Promote the next public key to current and the current key to previous.

The old previous key is discarded. Tokens signed with it stop validating.

Example:
  edgectl keys put --slot next next.pub
  edgectl keys rotate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := databaseStore(cfg)
		if err != nil {
			return err
		}
		if err := store.Rotate(cfg.PublicKeySecret); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rotated %s\n", cfg.PublicKeySecret)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysRotateCmd)
}
