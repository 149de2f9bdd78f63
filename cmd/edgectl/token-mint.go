package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
)

// tokenMintCmd represents the token mint command
var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Sign an authentication token",
	Long: `Sign an authentication token with a PEM encoded private key.

The token's kid header is set to the fingerprint of the key, so a server
holding several public keys tries the matching key first.

Example:
  edgectl token mint --private-key key.pem --subject t2_example --roles admin
  edgectl token mint --private-key key.pem --subject service/ads --ttl 5m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		keyPath, _ := flags.GetString("private-key")
		alg, _ := flags.GetString("algorithm")

		pemData, err := os.ReadFile(keyPath)
		if err != nil {
			return fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := authtoken.NewSigner(alg, pemData)
		if err != nil {
			return err
		}

		var opts mintOptions
		opts.Subject, _ = flags.GetString("subject")
		opts.Roles, _ = flags.GetStringSlice("roles")
		opts.ClientID, _ = flags.GetString("client-id")
		opts.ClientType, _ = flags.GetString("client-type")
		opts.Scopes, _ = flags.GetStringSlice("scopes")
		opts.LoID, _ = flags.GetString("loid")
		opts.LoIDCreatedMs, _ = flags.GetInt64("loid-created-ms")
		opts.TTL, _ = flags.GetDuration("ttl")

		signed, err := signer.Sign(opts.claims(time.Now()))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenMintCmd)

	flags := tokenMintCmd.Flags()
	flags.StringP("private-key", "k", "", "path to a PEM encoded private key")
	flags.StringP("algorithm", "a", keyring.DefaultAlgorithm, "signing algorithm")
	flags.StringP("subject", "s", "", "token subject, t2_<id> for users or service/<name> for services")
	flags.StringSlice("roles", nil, "user roles")
	flags.String("client-id", "", "OAuth client id")
	flags.String("client-type", "", "OAuth client type")
	flags.StringSlice("scopes", nil, "OAuth scopes")
	flags.String("loid", "", "logged-out id the token was minted for")
	flags.Int64("loid-created-ms", 0, "LoID creation time in epoch milliseconds")
	flags.Duration("ttl", time.Hour, "token lifetime, negative values mint an expired token")
	_ = tokenMintCmd.MarkFlagRequired("private-key")
}

type mintOptions struct {
	Subject       string
	Roles         []string
	ClientID      string
	ClientType    string
	Scopes        []string
	LoID          string
	LoIDCreatedMs int64
	TTL           time.Duration
}

func (o mintOptions) claims(now time.Time) authtoken.Claims {
	c := authtoken.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   o.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(o.TTL)),
		},
		Roles:           o.Roles,
		OAuthClientID:   o.ClientID,
		OAuthClientType: o.ClientType,
		Scopes:          o.Scopes,
	}
	if o.LoID != "" {
		c.LoID = &authtoken.LoIDClaim{ID: o.LoID, CreatedMs: o.LoIDCreatedMs}
	}
	return c
}
