package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext/header"
)

// headerDecodeCmd represents the header decode command
var headerDecodeCmd = &cobra.Command{
	Use:   "decode <header>",
	Short: "Print the fields of an edge context header",
	Long: `Decode a base64 encoded edge context header and print its fields as JSON.

With --verify the authentication token is validated against the keys in
the configured secret store, and the resulting identity is printed too.

Example:
  edgectl header decode DAABCwABAAAAB3QyX2RlYWQAAA==
  edgectl header decode --verify "$HEADER"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verify, _ := cmd.Flags().GetBool("verify")

		var validator edgecontext.TokenValidator = offlineValidator{}
		if verify {
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
			validator = newValidator(ring, cfg)
		}

		out, err := decodeHeader(args[0], validator, verify)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	headerCmd.AddCommand(headerDecodeCmd)
	headerDecodeCmd.Flags().Bool("verify", false, "validate the authentication token")
}

type decodedHeader struct {
	LoID          string         `json:"loid,omitempty"`
	LoIDCreatedMs int64          `json:"loid_created_ms,omitempty"`
	SessionID     string         `json:"session_id,omitempty"`
	DeviceID      string         `json:"device_id,omitempty"`
	AuthToken     string         `json:"authentication_token,omitempty"`
	OriginService string         `json:"origin_service,omitempty"`
	CountryCode   string         `json:"country_code,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	TokenValid    *bool          `json:"token_valid,omitempty"`
	EventFields   map[string]any `json:"event_fields,omitempty"`
}

func decodeHeader(encoded string, validator edgecontext.TokenValidator, verify bool) (decodedHeader, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return decodedHeader{}, fmt.Errorf("header is not valid base64: %w", err)
	}
	// Decode directly so a corrupt header is reported instead of
	// degrading to an empty context.
	req, err := header.Decode(raw)
	if err != nil {
		return decodedHeader{}, err
	}

	out := decodedHeader{
		LoID:          req.Loid.ID,
		LoIDCreatedMs: req.Loid.CreatedMs,
		SessionID:     req.Session.ID,
		DeviceID:      req.Device.ID,
		AuthToken:     req.AuthenticationToken,
		OriginService: req.OriginService.Name,
		CountryCode:   req.Geolocation.CountryCode,
		RequestID:     req.RequestID.ReadableID,
	}
	if verify {
		ec := edgecontext.NewFactory(validator, edgecontext.WithLogger(slog.Default())).FromUpstream(raw)
		valid := ec.AuthenticationToken().Valid()
		out.TokenValid = &valid
		out.EventFields = ec.EventFields()
	}
	return out, nil
}
