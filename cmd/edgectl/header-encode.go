package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
)

// headerEncodeCmd represents the header encode command
var headerEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build an edge context header",
	Long: `Build an edge context header from flags and print it base64 encoded.

The output can be sent as the X-Edge-Request header of a request to
'edgectl serve'. The token is embedded as given and is not validated.

Example:
  edgectl header encode --loid t2_deadbeef --session-id beefdead \
    --country-code US --auth-token "$(edgectl token mint ...)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var a edgecontext.NewArgs
		a.LoID, _ = flags.GetString("loid")
		a.LoIDCreatedMs, _ = flags.GetInt64("loid-created-ms")
		a.SessionID, _ = flags.GetString("session-id")
		a.DeviceID, _ = flags.GetString("device-id")
		a.AuthToken, _ = flags.GetString("auth-token")
		a.OriginServiceName, _ = flags.GetString("origin-service")
		a.CountryCode, _ = flags.GetString("country-code")
		a.RequestID, _ = flags.GetString("request-id")

		encoded, err := encodeHeader(a)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), encoded)
		return nil
	},
}

func init() {
	headerCmd.AddCommand(headerEncodeCmd)

	flags := headerEncodeCmd.Flags()
	flags.String("loid", "", "logged-out id, must start with t2_")
	flags.Int64("loid-created-ms", 0, "LoID creation time in epoch milliseconds")
	flags.String("session-id", "", "session id")
	flags.String("device-id", "", "device id")
	flags.String("auth-token", "", "raw authentication token")
	flags.String("origin-service", "", "name of the service the request originated from")
	flags.String("country-code", "", "ISO 3166-1 alpha-2 country code")
	flags.String("request-id", "", "human readable request id")
}

// offlineValidator treats every token as invalid. Encoding never inspects
// the token, so no keys are needed.
type offlineValidator struct{}

func (offlineValidator) Validate(string) authtoken.AuthenticationToken {
	return authtoken.Invalid{}
}

func encodeHeader(args edgecontext.NewArgs) (string, error) {
	ec, err := edgecontext.NewFactory(offlineValidator{}).New(args)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ec.Header()), nil
}
