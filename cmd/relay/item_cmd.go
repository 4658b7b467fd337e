package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"forum_relay/internal/domain"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Inspect processed items",
	}

	var (
		status string
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.itemList(cmd.Context(), status, limit)
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status (pending, success, failed)")
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of items")

	cmd.AddCommand(list)
	return cmd
}

func (a *app) itemList(ctx context.Context, status string, limit int) error {
	s := domain.ItemStatus(status)
	switch s {
	case "", domain.ItemStatusPending, domain.ItemStatusSuccess, domain.ItemStatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q (pending, success, failed)", domain.ErrValidation, status)
	}

	st, err := a.stores(ctx)
	if err != nil {
		return err
	}

	items, err := st.items.List(ctx, s, limit)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	counts, err := st.items.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count items: %w", err)
	}

	if a.jsonOut {
		if items == nil {
			items = []domain.Item{}
		}
		return a.printJSON(map[string]any{"items": items, "counts": counts})
	}

	if len(items) == 0 {
		fmt.Fprintln(a.stdout, "No items")
	} else {
		w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tRETRIES\tCREATED\tTITLE")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				it.ID, it.Status, it.RetryCount,
				it.CreatedAt.Local().Format("2006-01-02 15:04"), shorten(it.Title, 60))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.stdout, "\npending: %d  success: %d  failed: %d\n",
		counts[domain.ItemStatusPending], counts[domain.ItemStatusSuccess], counts[domain.ItemStatusFailed])
	return nil
}

func shorten(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
