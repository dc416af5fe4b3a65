package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
)

// Authorize runs the interactive authorization-code flow: the user is
// directed to the provider's consent page and pastes the response code back.
// The exchanged token is persisted through the store before it is returned.
func Authorize(ctx context.Context, oauthCfg *oauth2.Config, store *Store, nickname string, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := oauthCfg.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	fmt.Fprintf(out, "Paste this link into your browser to authorize access to %s's photos:\n%s\n", nickname, authURL)
	fmt.Fprint(out, "Paste the response code here: ")

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return nil, fmt.Errorf("authorization code is empty")
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	if err := store.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}
