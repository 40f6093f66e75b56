package models

const DefaultTokenType = "Bearer"

// TokenPair is the credential pair issued by the backend. An empty
// AccessToken means the session is unauthenticated regardless of the
// refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

func (p TokenPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}
