package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotebook/internal/adapters/render"
	"github.com/jsamuelsen/quotebook/internal/app"
)

func (c *cli) randomCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote",
		Long: `Show a random quote from the selected category.

Without --category the persisted selection (see "quotectl select") is used.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		quote, ok := c.store.Random(cmd.Context(), cliSession, category)
		if !ok {
			return render.Terminal{}.Render(c.out, nil)
		}

		return render.Terminal{}.Render(c.out, &quote)
	})

	return cmd
}

func (c *cli) addCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add TEXT",
		Short: "Add a quote",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category of the quote")

	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		quote, err := c.store.Add(cmd.Context(), args[0], category)
		if err != nil {
			return err
		}

		return render.Terminal{}.Render(c.out, &quote)
	})

	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import quotes from a JSON file (use - for stdin)",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()

		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			in = f
		}

		imported, err := c.store.Import(cmd.Context(), in)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(c.out, "imported %d quotes (%d total)\n", imported, c.store.Len())

		return err
	})

	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all quotes as JSON",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		data, err := c.store.Export(cmd.Context())
		if err != nil {
			return err
		}

		if output == "" {
			_, err = c.out.Write(data)
			return err
		}

		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		_, err = fmt.Fprintf(c.out, "exported %d quotes to %s\n", c.store.Len(), output)

		return err
	})

	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the category filter options",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		selected := c.store.SelectedCategory(cmd.Context())
		options := c.store.CategoryOptions()

		if asJSON {
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")

			return enc.Encode(map[string]any{"options": options, "selected": selected})
		}

		for _, option := range options {
			marker := "  "
			if strings.EqualFold(option, selected) {
				marker = "* "
			}

			if _, err := fmt.Fprintln(c.out, marker+option); err != nil {
				return err
			}
		}

		return nil
	})

	return cmd
}

func (c *cli) selectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select [CATEGORY]",
		Short: "Persist the category filter; omit CATEGORY to select all",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		var category string
		if len(args) == 1 {
			category = args[0]
		}

		selected, err := c.store.SelectCategory(cmd.Context(), category)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(c.out, "selected %s\n", selected)

		return err
	})

	return cmd
}

func (c *cli) syncCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch quotes from the remote collaborator and merge them",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "remote base URL override")

	cmd.RunE = c.run(func(cmd *cobra.Command, _ []string) error {
		if baseURL == "" {
			baseURL = c.cfg.Services.Remote.BaseURL
		}

		httpClient, err := clients.New(&clients.Config{
			BaseURL:     baseURL,
			ServiceName: c.cfg.Services.Remote.Name,
			Timeout:     c.cfg.Client.Timeout,
			Logger:      c.logger,
		})
		if err != nil {
			return err
		}

		syncer := app.NewSyncer(app.SyncerConfig{
			Remote:     acl.NewPlaceholderClient(acl.PlaceholderClientConfig{Client: httpClient, Logger: c.logger}),
			Store:      c.store,
			Notifier:   c.board,
			Logger:     c.logger,
			FetchLimit: c.cfg.Sync.FetchLimit,
			Marker:     c.cfg.Sync.Marker,
		})
		defer syncer.Stop()

		result, err := syncer.SyncNow(cmd.Context())
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(c.out, "fetched %d, replaced %d, added %d (%d total)\n",
			result.Fetched, result.Merge.Dropped, result.Merge.Added, result.Merge.Total)

		return err
	})

	return cmd
}
