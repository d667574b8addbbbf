// Package cmd implements the command-line interface for jellysan.
package cmd

import (
	"errors"
	"fmt"

	"github.com/jellysan-cli/jellysan/auth"
	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/spf13/viper"
)

// serverClient builds an authenticated client from the stored server
// configuration and keyring token.
func serverClient() (client *jellyfin.Client, userID string, err error) {
	serverURL := viper.GetString(key.ServerURL)
	if serverURL == "" {
		return nil, "", errors.New("no server configured, run `jellysan login` first")
	}

	token, err := auth.GetToken(serverURL)
	if err != nil {
		return nil, "", fmt.Errorf("no saved credentials for %s, run `jellysan login`: %w", serverURL, err)
	}

	userID = viper.GetString(key.ServerUserID)
	deviceID := viper.GetString(key.ServerDeviceID)

	return jellyfin.NewClient(serverURL, token, deviceID), userID, nil
}
