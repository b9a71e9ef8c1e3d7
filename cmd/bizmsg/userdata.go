package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/loykin/bizmsg/internal/authreq"
	"github.com/loykin/bizmsg/internal/credential"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultUserDataEndpoint = "https://api.linkedin.com/v2/me"

func newUserDataCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "userdata",
		Short: "Fetch the authenticated user's profile with a decrypted token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd, v)
			if err != nil {
				return err
			}
			fields, err := cmd.Flags().GetStringSlice("field")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			src, err := cfg.UserDataCredential(v.GetString("token"))
			if err != nil {
				return fmt.Errorf("%w (--token, BIZMSG_TOKEN or credential.type)", err)
			}
			token, err := credential.Acquire(ctx, src)
			if err != nil {
				return fmt.Errorf("failed to acquire credential: %w", err)
			}

			client := authreq.New(cfg.AuthRequest(), authreq.WithLogger(logger))
			doc, err := client.GetDocument(ctx, token, v.GetString("endpoint"))
			var rerr *authreq.Error
			if err != nil && !errors.As(err, &rerr) {
				return err
			}

			out := cmd.OutOrStdout()
			if doc == nil {
				_, _ = fmt.Fprintln(out, "Empty response.")
			} else if err := printDocument(out, doc, fields); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "Our work is done for this routine.")
			return nil
		},
	}
	cmd.Flags().String("token", "", "decrypted bearer token (overrides the credential config section)")
	cmd.Flags().String("endpoint", defaultUserDataEndpoint, "user data endpoint of the authentication provider")
	cmd.Flags().StringSlice("field", nil, "print only these gjson paths from the response (repeatable)")
	bindFlag(v, cmd, "token", "token")
	bindFlag(v, cmd, "endpoint", "endpoint")
	v.SetDefault("endpoint", defaultUserDataEndpoint)
	return cmd
}

// printDocument writes the whole body indented, or one "path: value" line
// per requested field.
func printDocument(w io.Writer, doc *authreq.Document, fields []string) error {
	if len(fields) == 0 {
		_, err := w.Write(doc.Pretty())
		return err
	}
	for _, f := range fields {
		val, ok := doc.Lookup(f)
		if !ok {
			val = "<missing>"
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", f, val); err != nil {
			return err
		}
	}
	return nil
}
