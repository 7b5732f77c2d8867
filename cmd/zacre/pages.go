package main

import (
	"context"
	"fmt"

	"github.com/artpar/zacre/core/formatter"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/spf13/cobra"
)

var listPage int

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List pages",
	Long: `List pages with their URL, layout and access rules.

Examples:
  zacre pages
  zacre pages --page=2 -o json`,
	RunE: runPagesList,
}

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List layouts",
	RunE:  runLayoutsList,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(layoutsCmd)

	pagesCmd.Flags().IntVar(&listPage, "page", 1, "result page")
	layoutsCmd.Flags().IntVar(&listPage, "page", 1, "result page")
}

func runPagesList(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Pages.List(context.Background(), page.Filter{}, envelope.Params{
		Page:  listPage,
		Limit: envelope.MaxLimit,
		Order: envelope.Order{Field: "url"},
	})
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}

	list := formatter.List{
		Kind:    "pages",
		Columns: []string{"url", "title", "layout", "role", "feature", "active", "locked"},
	}
	for _, p := range res.Items {
		layoutTitle := p.LayoutID
		if p.Layout != nil {
			layoutTitle = p.Layout.Title
		}
		list.Records = append(list.Records, map[string]any{
			"id":      p.ID,
			"url":     p.URL,
			"title":   p.Title,
			"layout":  layoutTitle,
			"role":    p.Role,
			"feature": string(p.AssignedFeature),
			"active":  p.IsActive,
			"locked":  p.IsLocked,
		})
	}
	if err := printList(list); err != nil {
		return err
	}

	if outputFormat == "table" && res.TotalPages > 1 {
		fmt.Printf("\nPage %d of %d (%d pages)\n", res.CurrentPage, res.TotalPages, res.TotalItems)
	}
	return nil
}

func runLayoutsList(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Layouts.List(context.Background(), layout.Filter{}, envelope.Params{
		Page:  listPage,
		Limit: envelope.MaxLimit,
		Order: envelope.Order{Field: "title"},
	})
	if err != nil {
		return fmt.Errorf("failed to list layouts: %w", err)
	}

	list := formatter.List{
		Kind:    "layouts",
		Columns: []string{"id", "title", "modules", "pages", "active"},
	}
	for _, l := range res.Items {
		list.Records = append(list.Records, map[string]any{
			"id":      l.ID,
			"title":   l.Title,
			"modules": len(l.Modules),
			"pages":   l.PageCount,
			"active":  l.IsActive,
		})
	}
	return printList(list)
}
