package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

func newRegisterCmd(serverURL *string) *cobra.Command {
	var body models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Link a LINE user to an employee using a registration token",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _ := json.Marshal(body)
			client := &http.Client{Timeout: 15 * time.Second}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				strings.TrimSuffix(*serverURL, "/")+"/api/v1/register", bytes.NewReader(b))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
				return fmt.Errorf("register failed: %s %s", resp.Status, strings.TrimSpace(string(msg)))
			}
			var user models.UserRecord
			if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as employee %s\n", user.UserID, user.EmployeeID)
			return nil
		},
	}
	cmd.Flags().StringVar(&body.RegistrationToken, "token", "", "registration token from the follow message")
	cmd.Flags().StringVar(&body.EmployeeID, "employee", "", "freee HR employee id")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}
