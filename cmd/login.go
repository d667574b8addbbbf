// Package cmd implements the command-line interface for jellysan.
package cmd

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/jellysan-cli/jellysan/auth"
	"github.com/jellysan-cli/jellysan/color"
	"github.com/jellysan-cli/jellysan/icon"
	"github.com/jellysan-cli/jellysan/jellyfin"
	"github.com/jellysan-cli/jellysan/key"
	"github.com/jellysan-cli/jellysan/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("server", "s", "", "Base URL of the media server")
	loginCmd.Flags().StringP("username", "u", "", "Username to authenticate as")
}

// loginCmd authenticates against a media server and stores the session token
// in the system keyring.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against a media server and store the credentials",
	Run: func(cmd *cobra.Command, args []string) {
		serverURL := lo.Must(cmd.Flags().GetString("server"))
		if serverURL == "" {
			prompt := &survey.Input{
				Message: "Server URL",
				Default: viper.GetString(key.ServerURL),
			}
			handleErr(survey.AskOne(prompt, &serverURL, survey.WithValidator(survey.Required)))
		}

		username := lo.Must(cmd.Flags().GetString("username"))
		if username == "" {
			prompt := &survey.Input{
				Message: "Username",
				Default: viper.GetString(key.ServerUsername),
			}
			handleErr(survey.AskOne(prompt, &username, survey.WithValidator(survey.Required)))
		}

		var password string
		handleErr(survey.AskOne(&survey.Password{Message: "Password"}, &password))

		deviceID := viper.GetString(key.ServerDeviceID)
		if deviceID == "" {
			deviceID = uuid.NewString()
		}

		client := jellyfin.NewClient(serverURL, "", deviceID)
		token, userID, err := client.AuthenticateByName(context.Background(), username, password)
		handleErr(err)

		handleErr(auth.SetToken(serverURL, token))

		viper.Set(key.ServerURL, serverURL)
		viper.Set(key.ServerUsername, username)
		viper.Set(key.ServerUserID, userID)
		viper.Set(key.ServerDeviceID, deviceID)

		switch err := viper.WriteConfig(); err.(type) {
		case viper.ConfigFileNotFoundError:
			handleErr(viper.SafeWriteConfig())
		default:
			handleErr(err)
		}

		fmt.Printf(
			"%s logged in to %s as %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(serverURL),
			style.Fg(color.Yellow)(username),
		)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

// logoutCmd removes the stored session token for the configured server.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token for the configured server",
	Run: func(cmd *cobra.Command, args []string) {
		serverURL := viper.GetString(key.ServerURL)
		if serverURL == "" {
			handleErr(fmt.Errorf("no server configured"))
		}

		handleErr(auth.DeleteToken(serverURL))
		fmt.Printf(
			"%s logged out of %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			serverURL,
		)
	},
}
