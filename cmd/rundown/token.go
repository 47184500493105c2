package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/hrygo/rundown/plugin/credential"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage stored calendar and mail credentials",
}

var tokenImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store an OAuth2 token read from a JSON file or stdin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, user, err := openCredentials(cmd)
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if file, _ := cmd.Flags().GetString("file"); file != "" && file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		raw, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		var tok oauth2.Token
		if err := json.Unmarshal(raw, &tok); err != nil {
			return fmt.Errorf("token is not valid JSON: %w", err)
		}
		if err := store.Save(user, &tok); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored token for %s\n", user)
		return nil
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Delete a stored token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, user, err := openCredentials(cmd)
		if err != nil {
			return err
		}
		if err := store.Revoke(user); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked token for %s\n", user)
		return nil
	},
}

func openCredentials(cmd *cobra.Command) (*credential.Store, string, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, "", err
	}
	user, _ := cmd.Flags().GetString("user")
	store, err := credential.Open(filepath.Join(p.Data, "credentials"))
	if err != nil {
		return nil, "", err
	}
	return store, user, nil
}

func init() {
	tokenCmd.PersistentFlags().String("user", "default", "account the token belongs to")
	tokenImportCmd.Flags().String("file", "-", `token JSON file, "-" for stdin`)
	tokenCmd.AddCommand(tokenImportCmd, tokenRevokeCmd)
}
