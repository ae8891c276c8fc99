package model

// CredentialPair holds the two tokens that make up an authenticated
// session.  The access token is short-lived and attached to every API
// request; the refresh token is long-lived and is used only to mint a
// replacement access token once the current one expires.
//
// Fields:
//  AccessToken  – short-lived bearer credential.
//  RefreshToken – long-lived credential exchanged for new access tokens.
type CredentialPair struct {
    AccessToken  string `json:"access_token"`
    RefreshToken string `json:"refresh_token"`
}

// Empty reports whether the pair carries no usable credentials.  A pair
// with an empty access token is treated as logged out even when a stale
// refresh token is still present.
func (p CredentialPair) Empty() bool {
    return p.AccessToken == "" && p.RefreshToken == ""
}
