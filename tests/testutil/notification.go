package testutil

import "github.com/nhle/mastodon-notify/internal/model"

// Mention returns a mention notification from username linking to url.
func Mention(username, url string) model.Notification {
	return model.Notification{
		Account: model.Account{
			ID:       "1",
			Username: username,
			Acct:     username + "@example.social",
		},
		Kind: model.KindMention,
		Status: &model.Status{
			ID:      "100",
			URL:     url,
			Content: "<p>hello there</p>",
		},
	}
}

// Follow returns a follow notification from username.
func Follow(username string) model.Notification {
	return model.Notification{
		Account: model.Account{ID: "2", Username: username, Acct: username},
		Kind:    model.KindFollow,
	}
}
