package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// ErrIdentityUnavailable means the identity backend could not be reached or
// answered with an unexpected status.
var ErrIdentityUnavailable = errors.New("identity backend unavailable")

// RemoteVerifier validates bearer tokens against an identity backend's
// user-info endpoint.
type RemoteVerifier struct {
	UserInfoURL string
	HTTPClient  *http.Client
}

// NewRemoteVerifier constructs a RemoteVerifier for the given endpoint.
func NewRemoteVerifier(userInfoURL string, httpClient *http.Client) *RemoteVerifier {
	return &RemoteVerifier{UserInfoURL: strings.TrimSpace(userInfoURL), HTTPClient: httpClient}
}

type remoteUserInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verify calls the user-info endpoint with the token and maps the profile.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, ErrInvalidToken
	}
	if v.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, v.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.UserInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: build request: %v", ErrIdentityUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return Identity{}, fmt.Errorf("%w: userinfo status %d", ErrIdentityUnavailable, resp.StatusCode)
	}

	var info remoteUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("%w: decode userinfo: %v", ErrIdentityUnavailable, err)
	}
	if info.Sub == "" {
		info.Sub = info.ID
	}
	if info.Sub == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:  info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

var _ Verifier = (*RemoteVerifier)(nil)
