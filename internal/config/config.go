package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingServiceAccount is returned when FCM_SERVICE_ACCOUNT is not set.
var ErrMissingServiceAccount = errors.New("FCM_SERVICE_ACCOUNT not set")

// ServiceAccount is the subset of a Google service-account key document the
// relay cares about. The raw document is kept alongside it in Config because
// the OAuth library parses it again.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

type Config struct {
	// ServiceAccountJSON is the raw FCM_SERVICE_ACCOUNT document.
	ServiceAccountJSON []byte
	ServiceAccount     ServiceAccount

	ServerPort string

	// RelayJWTSecret enables caller authentication when non-empty.
	RelayJWTSecret string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	raw := os.Getenv("FCM_SERVICE_ACCOUNT")
	if raw == "" {
		return nil, ErrMissingServiceAccount
	}

	sa, err := ParseServiceAccount([]byte(raw))
	if err != nil {
		return nil, err
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	return &Config{
		ServiceAccountJSON: []byte(raw),
		ServiceAccount:     sa,

		ServerPort: serverPort,

		RelayJWTSecret: os.Getenv("RELAY_JWT_SECRET"),
	}, nil
}

// ParseServiceAccount decodes a service-account key document and checks the
// fields needed for the JWT bearer grant.
func ParseServiceAccount(raw []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("parse FCM_SERVICE_ACCOUNT: %w", err)
	}

	var missing []string
	if sa.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if sa.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return ServiceAccount{}, fmt.Errorf("FCM_SERVICE_ACCOUNT missing fields: %v", missing)
	}
	return sa, nil
}
