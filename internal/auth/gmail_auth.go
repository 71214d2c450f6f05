package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// ErrNoGmailToken means no cached token exists and no interactive prompt was offered.
var ErrNoGmailToken = errors.New("gmail token file missing")

// GmailAuth locates the OAuth client file and the cached user token.
type GmailAuth struct {
	CredentialsFile string
	TokenFile       string
	// Prompt enables the one-time browser flow when the token file is missing.
	// Leave nil in non-interactive deployments.
	Prompt io.Reader
	Out    io.Writer
}

// Client returns an HTTP client authorised to send mail as the configured account.
func (a GmailAuth) Client(ctx context.Context) (*http.Client, error) {
	b, err := os.ReadFile(a.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}

	tok, err := tokenFromFile(a.TokenFile)
	if err != nil {
		if a.Prompt == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoGmailToken, a.TokenFile)
		}
		tok, err = a.tokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(a.TokenFile, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

func (a GmailAuth) tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	out := a.Out
	if out == nil {
		out = io.Discard
	}
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this link to authorise Gmail reminders:\n%v\n", authURL)
	fmt.Fprint(out, "Paste the code here: ")

	var authCode string
	if _, err := fmt.Fscan(a.Prompt, &authCode); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
