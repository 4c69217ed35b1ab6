package models

import "strings"

// Identity is the authenticated console user as reported by the auth provider.
// The tokens are opaque and only ever handed back to the provider.
type Identity struct {
	UserID       string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"full_name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// Label is the name shown in the user header.
func (i Identity) Label() string {
	if name := strings.TrimSpace(i.DisplayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(i.Email, "@")
	return local
}
