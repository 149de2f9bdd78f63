package authtoken

import "github.com/golang-jwt/jwt/v5"

// LoIDClaim describes the logged-out identity a token was minted for.
type LoIDClaim struct {
	ID        string `json:"id,omitempty"`
	CreatedMs int64  `json:"created_ms,omitempty"`
}

// Claims is the JSON payload of an authentication token. The subject is
// "t2_<id>" for users and "service/<name>" for internal services.
type Claims struct {
	jwt.RegisteredClaims

	Roles           []string   `json:"roles,omitempty"`
	OAuthClientID   string     `json:"client_id,omitempty"`
	OAuthClientType string     `json:"client_type,omitempty"`
	Scopes          []string   `json:"scopes,omitempty"`
	LoID            *LoIDClaim `json:"loid,omitempty"`
}
