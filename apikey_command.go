package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAPIKeyCommand(ctx *commandContext) *cobra.Command {
	apiKeyCmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for /api/analyze",
	}

	var name string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print it once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			app, err := ctx.adminApplication(cmd)
			if err != nil {
				return err
			}

			created, err := app.apiKeys.Create(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("create api key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created API key %q (id %s)\n", created.Name, created.ID)
			fmt.Fprintln(out, created.Key)
			fmt.Fprintln(out, "Store this key now; it cannot be shown again.")
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Human-readable name for the key")
	apiKeyCmd.AddCommand(createCmd)

	apiKeyCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.adminApplication(cmd)
			if err != nil {
				return err
			}

			keys, err := app.apiKeys.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list api keys: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPREFIX\tSTATUS")
			for _, k := range keys {
				status := "active"
				if !k.IsActive() {
					status = "revoked"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k.ID, k.Name, k.Prefix, status)
			}
			return w.Flush()
		},
	})

	return apiKeyCmd
}
