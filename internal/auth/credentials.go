package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"photosync/internal/config"
	"photosync/internal/fileutil"
	"photosync/internal/services"
)

// LoadOAuthConfig assembles the OAuth client configuration. A credentials
// file named on the command line is cached into the cache directory for
// subsequent runs; otherwise the previously cached file is used. Values set
// in the photosync config override whatever the credentials file says. A
// missing or invalid credentials file is a configuration error that aborts
// the whole run.
func LoadOAuthConfig(cfg *config.Config, credentialsOverride string) (*oauth2.Config, error) {
	cachePath := cfg.CredentialsCachePath()

	source := strings.TrimSpace(credentialsOverride)
	if source == "" {
		source = cfg.Google.CredentialsFile
	}
	if source != "" && source != cachePath {
		if err := fileutil.CopyFileMode(source, cachePath, 0o600); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "credentials",
				fmt.Sprintf("cache credentials file %s", source), err)
		}
	}

	oauthCfg, err := configFromFile(cachePath)
	if err != nil {
		// The file is optional when the client identity is fully specified
		// in config or environment.
		if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
			return nil, err
		}
		oauthCfg = &oauth2.Config{}
	}

	applyOverrides(oauthCfg, cfg)

	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "credentials",
			"no client_id/client_secret in credentials file, config, or environment", nil)
	}
	if oauthCfg.RedirectURL == "" {
		oauthCfg.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	}
	if len(oauthCfg.Scopes) == 0 {
		oauthCfg.Scopes = append([]string{}, cfg.Google.Scopes...)
	}
	return oauthCfg, nil
}

func configFromFile(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "", "credentials",
				fmt.Sprintf("no cached credentials file at %s and none supplied", path), nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "", "credentials", "read credentials file", err)
	}

	oauthCfg, err := google.ConfigFromJSON(data)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "credentials",
			fmt.Sprintf("parse credentials file %s", path), err)
	}
	return oauthCfg, nil
}

func applyOverrides(oauthCfg *oauth2.Config, cfg *config.Config) {
	if cfg.Google.ClientID != "" {
		oauthCfg.ClientID = cfg.Google.ClientID
	}
	if cfg.Google.ClientSecret != "" {
		oauthCfg.ClientSecret = cfg.Google.ClientSecret
	}
	if cfg.Google.RedirectURI != "" {
		oauthCfg.RedirectURL = cfg.Google.RedirectURI
	}
	if cfg.Google.AuthURL != "" {
		oauthCfg.Endpoint.AuthURL = cfg.Google.AuthURL
	}
	if cfg.Google.TokenURL != "" {
		oauthCfg.Endpoint.TokenURL = cfg.Google.TokenURL
	}
	if len(cfg.Google.Scopes) > 0 {
		oauthCfg.Scopes = append([]string{}, cfg.Google.Scopes...)
	}
}
