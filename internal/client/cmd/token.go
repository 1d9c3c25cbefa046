package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Miura55/freee-labor-bot/internal/server/app"
	"github.com/Miura55/freee-labor-bot/internal/server/config"
	"github.com/Miura55/freee-labor-bot/internal/server/service"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

func newTokenCmd() *cobra.Command {
	var tenant string
	cmd := &cobra.Command{Use: "token", Short: "Manage the freee bearer token record"}
	cmd.PersistentFlags().StringVar(&tenant, "tenant", "", "tenant id (defaults to FREEE_COMPANY_ID)")

	var expiresIn time.Duration
	put := &cobra.Command{
		Use:   "put",
		Short: "Store the access and refresh token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokens(cmd.Context(), func(tokens *service.TokenProvider, cfg config.Config) error {
				in := newSecretReader(cmd)
				access, err := in.read("Access token: ")
				if err != nil {
					return err
				}
				if access == "" {
					return fmt.Errorf("access token is required")
				}
				refresh, err := in.read("Refresh token (optional): ")
				if err != nil {
					return err
				}
				t := models.BearerToken{
					TenantID:     tenantOrDefault(tenant, cfg),
					AccessToken:  access,
					RefreshToken: refresh,
					ExpiresAt:    time.Now().Add(expiresIn).UTC(),
				}
				if err := tokens.Put(cmd.Context(), t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Token stored for tenant %s (expires %s)\n", t.TenantID, t.ExpiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}
	put.Flags().DurationVar(&expiresIn, "expires-in", 6*time.Hour, "token lifetime")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the stored token (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokens(cmd.Context(), func(tokens *service.TokenProvider, cfg config.Config) error {
				t, err := tokens.Get(cmd.Context(), tenantOrDefault(tenant, cfg))
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "tenant:        %s\n", t.TenantID)
				fmt.Fprintf(w, "access token:  %s\n", mask(t.AccessToken))
				fmt.Fprintf(w, "refresh token: %s\n", mask(t.RefreshToken))
				fmt.Fprintf(w, "expires at:    %s\n", t.ExpiresAt.Format(time.RFC3339))
				if !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt) {
					fmt.Fprintln(w, "status:        expired")
				}
				return nil
			})
		},
	}

	cmd.AddCommand(put, show)
	return cmd
}

// withTokens opens the configured store for the duration of fn.
func withTokens(ctx context.Context, fn func(*service.TokenProvider, config.Config) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	svcs, err := service.NewServices(service.Deps{Repo: store}, cfg)
	if err != nil {
		return err
	}
	return fn(svcs.Tokens, cfg)
}

func tenantOrDefault(tenant string, cfg config.Config) string {
	if tenant != "" {
		return tenant
	}
	return cfg.TenantID()
}

func mask(s string) string {
	if s == "" {
		return "(none)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// secretReader reads secrets without echo from a terminal, or line by line
// from piped input.
type secretReader struct {
	out   io.Writer
	fd    int
	tty   bool
	lines *bufio.Reader
}

func newSecretReader(cmd *cobra.Command) *secretReader {
	r := &secretReader{out: cmd.OutOrStdout()}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.fd, r.tty = int(f.Fd()), true
		return r
	}
	r.lines = bufio.NewReader(in)
	return r
}

func (r *secretReader) read(prompt string) (string, error) {
	if !r.tty {
		line, err := r.lines.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprint(r.out, prompt)
	b, err := term.ReadPassword(r.fd)
	fmt.Fprintln(r.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
