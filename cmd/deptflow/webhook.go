package main

import (
	"fmt"
	"os"

	"github.com/deptflow/internal/cli"
	"github.com/deptflow/internal/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	commandMessage     string
	commandDescription string
	commandCreatedBy   string
	commandsPlain      bool
)

var webhookCmd = &cobra.Command{
	Use:     "webhook",
	Aliases: []string{"wh"},
	Short:   "Manage the Discord webhook registry",
	Long: `Register Discord webhooks per server and attach preset commands to them.
Sending a command posts its message content to the webhook.`,
}

var webhookAddCmd = &cobra.Command{
	Use:   "add <guild-id> <name> <url>",
	Short: "Register a webhook",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhooks, err := openWebhooks()
		if err != nil {
			return err
		}
		hook, err := webhooks.AddWebhook(args[0], args[2], args[1])
		if err != nil {
			return fmt.Errorf("failed to add webhook: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Registered webhook %q for guild %s\n", hook.Name, hook.GuildID)
		return nil
	},
}

var webhookListCmd = &cobra.Command{
	Use:     "list <guild-id>",
	Aliases: []string{"ls"},
	Short:   "List the webhooks of a guild",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhooks, err := openWebhooks()
		if err != nil {
			return err
		}
		hooks, err := webhooks.ListWebhooks(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(hooks) == 0 {
			fmt.Fprintln(out, "No webhooks registered.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, hook := range hooks {
			fmt.Fprintf(out, "%s %s\n", hook.Name, faint.Sprint(hook.CreatedAt.Format("2006-01-02 15:04")))
		}
		return nil
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:     "delete <guild-id> <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a webhook and its commands",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhooks, err := openWebhooks()
		if err != nil {
			return err
		}
		if err := webhooks.DeleteWebhook(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Deleted webhook %q\n", args[1])
		return nil
	},
}

var webhookCommandCmd = &cobra.Command{
	Use:   "command",
	Short: "Manage the preset commands of a webhook",
}

var webhookCommandAddCmd = &cobra.Command{
	Use:   "add <guild-id> <webhook> <command>",
	Short: "Attach a preset message to a webhook",
	Long: `Attach a preset message to a webhook. The message is markdown and is sent
as-is to Discord.

Example:
  deptflow webhook command add 1234 alerts deploy --message "**Deploy** started" --created-by ops`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhooks, err := openWebhooks()
		if err != nil {
			return err
		}
		hook, err := webhooks.GetWebhook(args[0], args[1])
		if err != nil {
			return err
		}
		createdBy := commandCreatedBy
		if createdBy == "" {
			createdBy = os.Getenv("USER")
		}
		command, err := webhooks.AddCommand(hook.ID, service.CommandInput{
			CommandName:    args[2],
			MessageContent: commandMessage,
			Description:    commandDescription,
			CreatedBy:      createdBy,
		})
		if err != nil {
			return fmt.Errorf("failed to add command: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Added command %q to %s\n", command.CommandName, hook.Name)
		return nil
	},
}

var webhookCommandDeleteCmd = &cobra.Command{
	Use:     "delete <guild-id> <webhook> <command>",
	Aliases: []string{"rm"},
	Short:   "Remove a preset command",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhooks, err := openWebhooks()
		if err != nil {
			return err
		}
		hook, err := webhooks.GetWebhook(args[0], args[1])
		if err != nil {
			return err
		}
		if err := webhooks.DeleteCommand(hook.ID, args[2]); err != nil {
			return fmt.Errorf("failed to delete command: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Deleted command %q\n", args[2])
		return nil
	},
}

var webhookCommandsCmd = &cobra.Command{
	Use:   "commands <guild-id> <webhook>",
	Short: "Show the preset commands of a webhook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhooks, err := openWebhooks()
		if err != nil {
			return err
		}
		hook, err := webhooks.GetWebhook(args[0], args[1])
		if err != nil {
			return err
		}
		commands, err := webhooks.ListCommands(hook.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(commands) == 0 {
			fmt.Fprintln(out, "No commands registered.")
			return nil
		}

		style := ""
		if commandsPlain {
			style = "notty"
		}
		bold := color.New(color.Bold)
		faint := color.New(color.Faint)
		for _, command := range commands {
			fmt.Fprintf(out, "%s %s\n", bold.Sprint(command.CommandName), faint.Sprintf("by %s", command.CreatedBy))
			if command.Description != "" {
				fmt.Fprintln(out, faint.Sprint(command.Description))
			}
			body, err := cli.RenderMarkdown(command.MessageContent, style, 80)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, body)
			fmt.Fprintln(out)
		}
		return nil
	},
}

var webhookSendCmd = &cobra.Command{
	Use:   "send <guild-id> <webhook> <command>",
	Short: "Post a preset command to its webhook",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhooks, err := openWebhooks()
		if err != nil {
			return err
		}
		if err := webhooks.Send(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Sent %q via %s\n", args[2], args[1])
		return nil
	},
}

func init() {
	webhookCommandAddCmd.Flags().StringVarP(&commandMessage, "message", "m", "", "message content (markdown)")
	webhookCommandAddCmd.Flags().StringVar(&commandDescription, "description", "", "short description")
	webhookCommandAddCmd.Flags().StringVar(&commandCreatedBy, "created-by", "", "author name (default $USER)")
	_ = webhookCommandAddCmd.MarkFlagRequired("message")
	webhookCommandsCmd.Flags().BoolVar(&commandsPlain, "plain", false, "render without terminal styling")

	webhookCommandCmd.AddCommand(webhookCommandAddCmd, webhookCommandDeleteCmd)
	webhookCmd.AddCommand(webhookAddCmd, webhookListCmd, webhookDeleteCmd, webhookCommandCmd, webhookCommandsCmd, webhookSendCmd)
	rootCmd.AddCommand(webhookCmd)
}
