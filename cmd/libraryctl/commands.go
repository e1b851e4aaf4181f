package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"syscall"

	"library-api/internal/app"
	"library-api/internal/bootstrap"
	"library-api/internal/config"
	"library-api/internal/db"
	"library-api/internal/logger"
	"library-api/migrations"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.LogLevel, "text"), nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("migrate needs STORE_DRIVER=%s", config.DriverPostgres)
			}

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(ctx, pool, migrations.FS, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var email, username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account and print a token for it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var password string
			var err error
			if passwordStdin {
				password, err = readPasswordLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			return withRuntime(cmd.Context(), func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.CreateAdmin(ctx, app.RegisterRequest{Email: email, Username: username, Password: password})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, svc app.ApplicationService) error {
				tok, err := svc.MintToken(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tok)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "id of the user the token is for")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

// withRuntime opens the configured store, runs fn and drains the audit queue.
func withRuntime(ctx context.Context, fn func(ctx context.Context, svc app.ApplicationService) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.Open(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt.Service)
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
