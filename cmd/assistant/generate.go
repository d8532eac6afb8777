package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/deeplooplabs/ai-assistant/suggest"
)

func newGenerateCmd(configPath *string) *cobra.Command {
	var userID, contactID string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one suggestion and print the result envelope",
	}
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.PersistentFlags().StringVar(&contactID, "contact", "", "contact id")
	_ = cmd.MarkPersistentFlagRequired("user")

	// run wires the app, runs fn and flushes usage before printing
	run := func(cmd *cobra.Command, fn func(ctx context.Context, svc *suggest.Service) any) error {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, nil)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		result := fn(ctx, a.service)
		a.close(ctx)
		return printJSON(cmd.OutOrStdout(), result)
	}

	var situation string
	messagesCmd := &cobra.Command{
		Use:   "messages",
		Short: "Draft messages to send to a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if contactID == "" {
				return fmt.Errorf("--contact is required")
			}
			return run(cmd, func(ctx context.Context, svc *suggest.Service) any {
				return svc.GenerateMessageSuggestions(ctx, userID, contactID, situation)
			})
		},
	}
	messagesCmd.Flags().StringVar(&situation, "context", "", "occasion or situation, e.g. birthday")

	var budget string
	var groupSize int
	var interests []string
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Suggest activities, optionally for a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc *suggest.Service) any {
				return svc.GenerateEventIdeas(ctx, suggest.EventIdeasRequest{
					UserID:    userID,
					ContactID: contactID,
					Budget:    budget,
					GroupSize: groupSize,
					Interests: interests,
				})
			})
		},
	}
	eventsCmd.Flags().StringVar(&budget, "budget", "", "budget tier, e.g. free, low, medium")
	eventsCmd.Flags().IntVar(&groupSize, "group-size", 0, "number of people")
	eventsCmd.Flags().StringSliceVar(&interests, "interest", nil, "shared interest (repeatable)")

	var topic string
	startersCmd := &cobra.Command{
		Use:   "starters",
		Short: "Suggest conversation starters for a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if contactID == "" {
				return fmt.Errorf("--contact is required")
			}
			return run(cmd, func(ctx context.Context, svc *suggest.Service) any {
				return svc.GenerateConversationStarters(ctx, userID, contactID, topic)
			})
		},
	}
	startersCmd.Flags().StringVar(&topic, "topic", "", "topic to focus on")

	tipCmd := &cobra.Command{
		Use:   "tip",
		Short: "Get a relationship tip based on your contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc *suggest.Service) any {
				return svc.GenerateRelationshipTip(ctx, userID)
			})
		},
	}

	cmd.AddCommand(messagesCmd, eventsCmd, startersCmd, tipCmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
