// Package setup walks the user through authorizing the daemon against their
// Mastodon instance and stores the resulting token.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/mastodon-notify/internal/auth"
	"github.com/nhle/mastodon-notify/internal/theme"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("setup aborted")

// TokenSetter stores the access token. *credential.Store implements it.
type TokenSetter interface {
	Set(key, value string) error
}

// Opener opens the authorization page. *browser.Opener implements it.
type Opener interface {
	Open(url string) error
}

// Prompter collects the values the wizard needs from the user.
type Prompter interface {
	ClientCredentials(host string) (clientID, clientSecret string, err error)
	AuthorizationCode() (string, error)
}

// Wizard runs the interactive authorization.
type Wizard struct {
	Host     string
	Account  string
	Tokens   TokenSetter
	Opener   Opener
	Prompter Prompter
	Out      io.Writer

	// TokenURL overrides the instance's token endpoint when set.
	TokenURL string
}

// Run prompts for client credentials, sends the user to the login page,
// exchanges the code they paste back, and stores the token.
func (w *Wizard) Run(ctx context.Context) error {
	fmt.Fprintln(w.Out, theme.HeaderStyle.Render("mastodon-notify setup")+" "+w.Account)
	fmt.Fprintln(w.Out, theme.HelpStyle.Render(
		"Create an application under Preferences > Development on "+w.Host+" with the read scope."))

	clientID, clientSecret, err := w.Prompter.ClientCredentials(w.Host)
	if err != nil {
		return err
	}

	flow, err := auth.NewFlow(w.Host, clientID, clientSecret)
	if err != nil {
		return err
	}
	if w.TokenURL != "" {
		flow = flow.WithTokenURL(w.TokenURL)
	}

	loginURL := flow.LoginURL()
	fmt.Fprintln(w.Out, "Authorize the application at:")
	fmt.Fprintln(w.Out, theme.BorderStyle.Render(theme.LinkStyle.Render(loginURL)))
	if w.Opener != nil {
		if err := w.Opener.Open(loginURL); err != nil {
			log.Printf("could not open browser, open the link manually: %v", err)
		}
	}

	code, err := w.Prompter.AuthorizationCode()
	if err != nil {
		return err
	}

	log.Printf("fetching authorization token")
	token, err := flow.Exchange(ctx, code)
	if err != nil {
		return err
	}

	if err := w.Tokens.Set(w.Account, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	fmt.Fprintln(w.Out, theme.SuccessStyle.Render("Token stored for "+w.Account))
	return nil
}

// FormPrompter asks for input with huh forms.
type FormPrompter struct{}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func runForm(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// ClientCredentials asks for the application's client key and secret.
func (FormPrompter) ClientCredentials(host string) (string, string, error) {
	var clientID, clientSecret string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Client key").
				Description("From the application page on "+host).
				Value(&clientID).
				Validate(required("client key")),
			huh.NewInput().
				Title("Client secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret).
				Validate(required("client secret")),
		),
	)
	if err := runForm(form); err != nil {
		return "", "", err
	}

	return strings.TrimSpace(clientID), strings.TrimSpace(clientSecret), nil
}

// AuthorizationCode asks for the code shown after authorizing.
func (FormPrompter) AuthorizationCode() (string, error) {
	var code string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Authorization code").
				Value(&code).
				Validate(required("authorization code")),
		),
	)
	if err := runForm(form); err != nil {
		return "", err
	}

	return strings.TrimSpace(code), nil
}
