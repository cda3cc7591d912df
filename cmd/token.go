package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/climate-monitor/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token",
	Long:  `Print a signed bearer token for the API, using the server's JWT secret.`,
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("subject", "", "token subject, usually the user name")
	tokenCmd.Flags().String("role", string(auth.RoleOperator), "role (operator, supervisor, admin)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().String("jwt-secret", "", "HMAC secret (defaults to server.auth.jwt_secret)")
}

func runToken(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	subject, _ := flags.GetString("subject")
	if subject == "" {
		return errors.New("--subject is required")
	}
	roleName, _ := flags.GetString("role")
	role, ok := auth.NormalizeRole(roleName)
	if !ok {
		return fmt.Errorf("%w: %q", auth.ErrInvalidRole, roleName)
	}
	ttl, _ := flags.GetDuration("ttl")

	secret, _ := flags.GetString("jwt-secret")
	if secret == "" {
		secret = viper.GetString("server.auth.jwt_secret")
	}

	token, err := auth.MintToken([]byte(secret), subject, role, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
