// Package auth provides a high-level API for persisting and retrieving server credentials from the system keyring.
package auth

import (
	"github.com/zalando/go-keyring"
)

const service = "jellysan-cli"

// SetToken persists the access token for a media server to the system keyring.
// The server's base URL is used as the account key, so multiple servers can coexist.
func SetToken(serverURL, token string) error {
	return keyring.Set(service, serverURL, token)
}

// GetToken retrieves the access token for a media server from the system keyring.
func GetToken(serverURL string) (string, error) {
	return keyring.Get(service, serverURL)
}

// DeleteToken removes the access token for a media server from the system keyring.
func DeleteToken(serverURL string) error {
	return keyring.Delete(service, serverURL)
}
