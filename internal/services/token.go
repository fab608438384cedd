package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// DefaultTokenURL is the web player's anonymous token endpoint.
const DefaultTokenURL = "https://open.spotify.com/get_access_token"

var errMissingAccessToken = errors.New("response has no accessToken")

// TokenProvider produces a bearer token for the Spotify Web API.
type TokenProvider interface {
	Fetch(ctx context.Context) (*oauth2.Token, error)
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// TokenFetcher obtains an anonymous access token with a single GET.
//
// Tokens are neither validated, cached nor refreshed: every call hits the endpoint.
type TokenFetcher struct {
	client *http.Client
	url    string
	logger *log.Logger
}

// NewTokenFetcher creates a fetcher that uses client for its request.
// An empty tokenURL selects [DefaultTokenURL].
func NewTokenFetcher(client *http.Client, tokenURL string, logger *log.Logger) *TokenFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TokenFetcher{client: client, url: tokenURL, logger: logger}
}

// Fetch performs the token request and returns the access token it carries.
func (f *TokenFetcher) Fetch(ctx context.Context) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &TransportError{Op: "token", URL: f.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "token", URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "token", URL: f.url, Err: err}
	}

	var payload accessTokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DeserializationError{Source: "token response", StatusCode: resp.StatusCode, Body: body, Err: err}
	}

	if payload.AccessToken == "" {
		return nil, &DeserializationError{
			Source:     "token response",
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        errMissingAccessToken,
		}
	}

	f.logger.Debug("fetched anonymous token", "status", resp.StatusCode)
	return &oauth2.Token{AccessToken: payload.AccessToken, TokenType: "Bearer"}, nil
}
