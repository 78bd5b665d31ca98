package service

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// MessagingScope is the OAuth scope required by the FCM send endpoint.
const MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// ServiceAccountTokens exchanges a service-account key for access tokens
// using the JWT bearer grant.
//
// The parsed key is shared; a new token source is built on every call, so
// each AccessToken performs its own exchange and no token outlives a request.
type ServiceAccountTokens struct {
	conf *jwt.Config
}

// NewServiceAccountTokens parses a service-account key document.
func NewServiceAccountTokens(credentialsJSON []byte) (*ServiceAccountTokens, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, MessagingScope)
	if err != nil {
		return nil, fmt.Errorf("load service account: %w", err)
	}
	return &ServiceAccountTokens{conf: conf}, nil
}

// AccessToken performs one token exchange and returns the bearer token.
func (s *ServiceAccountTokens) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.conf.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("get access token: %w", err)
	}
	return tok.AccessToken, nil
}
