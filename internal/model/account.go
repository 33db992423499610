package model

// Account is a Mastodon account as it appears in stream payloads.
type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Acct        string `json:"acct"`
}

// Name returns the display name, falling back to the username when the
// account has not set one.
func (a Account) Name() string {
	if a.DisplayName == "" {
		return a.Username
	}
	return a.DisplayName
}
