package main

import (
	"errors"
	"fmt"

	"github.com/loykin/bizmsg/internal/message"
	"github.com/loykin/bizmsg/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newQuickReplyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick-reply",
		Short: "Send an interactive quick reply message",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd, v)
			if err != nil {
				return err
			}
			if err := cfg.ValidateMessaging(); err != nil {
				return err
			}
			destination, ok := util.TrimEmptyCheck(v.GetString("destination"))
			if !ok {
				return errors.New("--destination is required")
			}

			qr := message.DefaultQuickReply()
			if path, ok := util.TrimEmptyCheck(v.GetString("items")); ok {
				if qr, err = message.LoadQuickReply(path); err != nil {
					return err
				}
			}
			msg, err := message.BuildQuickReply(cfg.BusinessID, destination, qr)
			if err != nil {
				return err
			}

			creds, err := cfg.MessagingCredential()
			if err != nil {
				return err
			}
			sender, err := message.NewSender(cfg.Sender(), creds, logger)
			if err != nil {
				return err
			}
			code, err := sender.Send(cmd.Context(), msg)
			if code != 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Messages for Business server return code: %d\n", code)
			}
			return err
		},
	}
	cmd.Flags().String("destination", "", "opaque destination id of the customer")
	cmd.Flags().String("items", "", "YAML file with summary_text and items (defaults to a four item sample)")
	bindFlag(v, cmd, "destination", "destination")
	bindFlag(v, cmd, "items", "items")
	return cmd
}
