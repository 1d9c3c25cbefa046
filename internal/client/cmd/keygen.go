package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// tokenKeyLength is the AES-256 key size expected in LABORBOT_TOKEN_KEY.
const tokenKeyLength = 32

func newKeygenCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a token sealing key for LABORBOT_TOKEN_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := generateKey()
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), key)
				return nil
			}
			if err := writeKeyFile(out, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token key written to", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the key to this file (0600) instead of stdout")
	return cmd
}

func generateKey() (string, error) {
	key := make([]byte, tokenKeyLength)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// writeKeyFile refuses to replace an existing key; sealed tokens would become
// unreadable.
func writeKeyFile(path, key string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.New("key file already exists: " + path)
	}
	return os.WriteFile(path, []byte(key+"\n"), 0o600)
}
