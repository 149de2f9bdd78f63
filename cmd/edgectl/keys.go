package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage token public keys",
	Long: `Manage the public keys used to validate authentication tokens.

Keys are held in a versioned secret with current, previous and next slots.
Writing keys requires the database secret store.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'keys' requires a subcommand (list, put, rotate)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
