package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deeplooplabs/ai-assistant/content"
	contentsqlite "github.com/deeplooplabs/ai-assistant/content/sqlite"
)

// newContactCmd seeds the content database the generators read from
func newContactCmd(configPath *string) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage contacts in the local content database",
	}
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "owning user id")
	_ = cmd.MarkPersistentFlagRequired("user")

	var c content.ContactDetails
	var lastContact string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.ID == "" || c.Name == "" {
				return fmt.Errorf("--id and --name are required")
			}
			if lastContact != "" {
				t, err := time.Parse(time.DateOnly, lastContact)
				if err != nil {
					return fmt.Errorf("--last-contact: %w", err)
				}
				c.Relationship.LastContactDate = &t
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			repo, err := contentsqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			if err := repo.PutContact(cmd.Context(), userID, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved contact %s (%s).\n", c.ID, c.Name)
			return nil
		},
	}
	addCmd.Flags().StringVar(&c.ID, "id", "", "contact id")
	addCmd.Flags().StringVar(&c.Name, "name", "", "display name")
	addCmd.Flags().StringVar(&c.Relationship.Tier, "tier", content.TierClose, "inner_circle, close or acquaintance")
	addCmd.Flags().StringVar(&c.Relationship.Type, "type", "", "relationship type, e.g. friend, family")
	addCmd.Flags().StringVar(&lastContact, "last-contact", "", "date of last contact (YYYY-MM-DD)")
	addCmd.Flags().StringSliceVar(&c.Interests, "interest", nil, "interest (repeatable)")
	addCmd.Flags().StringVar(&c.Notes, "notes", "", "free-form notes")

	var contactID, at string
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Record an interaction with a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if at != "" {
				t, err := time.Parse(time.DateOnly, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				when = t
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			repo, err := contentsqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			if _, err := repo.GetContactWithDetails(cmd.Context(), userID, contactID); err != nil {
				return err
			}
			return repo.AddInteraction(cmd.Context(), userID, contactID, when)
		},
	}
	logCmd.Flags().StringVar(&contactID, "contact", "", "contact id")
	logCmd.Flags().StringVar(&at, "at", "", "interaction date (YYYY-MM-DD, default now)")
	_ = logCmd.MarkFlagRequired("contact")

	cmd.AddCommand(addCmd, logCmd)
	return cmd
}
