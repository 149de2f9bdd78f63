package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
)

// tokenVerifyCmd represents the token verify command
var tokenVerifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Validate an authentication token",
	Long: `Validate an authentication token against the public keys in the configured
secret store and print its claims.

The command fails with the reason when the token is rejected.

Example:
  edgectl token verify "$TOKEN"`,
	Args: cobra.ExactArgs(1),
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

		tok, err := newValidator(ring, cfg).Verify(args[0])
		if err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(describeToken(tok))
	},
}

func init() {
	tokenCmd.AddCommand(tokenVerifyCmd)
}

type tokenDescription struct {
	Subject         string   `json:"subject"`
	Roles           []string `json:"roles"`
	OAuthClientID   string   `json:"client_id,omitempty"`
	OAuthClientType string   `json:"client_type,omitempty"`
	Scopes          []string `json:"scopes"`
	LoID            string   `json:"loid,omitempty"`
}

func describeToken(tok authtoken.AuthenticationToken) tokenDescription {
	var d tokenDescription
	d.Subject, _ = tok.Subject()
	roles, _ := tok.UserRoles()
	d.Roles = roles.Sorted()
	d.OAuthClientID, _ = tok.OAuthClientID()
	d.OAuthClientType, _ = tok.OAuthClientType()
	scopes, _ := tok.Scopes()
	d.Scopes = scopes.Sorted()
	d.LoID, _ = tok.LoID()
	return d
}
