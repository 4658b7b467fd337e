package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"forum_relay/internal/domain"
	"forum_relay/internal/source/reddit"
)

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source",
		Aliases: []string{"subreddit"},
		Short:   "Manage monitored sources",
	}

	var (
		kind    string
		feedURL string
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a subreddit or RSS feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sourceAdd(cmd.Context(), args[0], domain.SourceKind(kind), feedURL)
		},
	}
	add.Flags().StringVar(&kind, "kind", string(domain.SourceKindReddit), "source kind (reddit, rss)")
	add.Flags().StringVar(&feedURL, "url", "", "source URL (required for rss)")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "list",
			Short: "List sources",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.sourceList(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "enable <name>",
			Short: "Enable a source",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.sourceSetEnabled(cmd.Context(), args[0], true)
			},
		},
		&cobra.Command{
			Use:   "disable <name>",
			Short: "Disable a source",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.sourceSetEnabled(cmd.Context(), args[0], false)
			},
		},
	)
	return cmd
}

// newSource validates the arguments of "source add" and fills the default
// URL for subreddits.
func newSource(name string, kind domain.SourceKind, rawURL string) (*domain.Source, error) {
	src := &domain.Source{Name: name, Kind: kind, URL: rawURL, Enabled: true}

	switch kind {
	case domain.SourceKindReddit:
		if err := reddit.ValidateName(name); err != nil {
			return nil, err
		}
		if src.URL == "" {
			src.URL = reddit.SubredditURL(name)
		}
	case domain.SourceKindRSS:
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: source name is required", domain.ErrValidation)
		}
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: rss sources need an http(s) --url", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q (supported: reddit, rss)", domain.ErrValidation, kind)
	}
	return src, nil
}

func (a *app) sourceAdd(ctx context.Context, name string, kind domain.SourceKind, rawURL string) error {
	src, err := newSource(name, kind, rawURL)
	if err != nil {
		return err
	}

	st, err := a.stores(ctx)
	if err != nil {
		return err
	}
	if err := st.sources.Create(ctx, src); err != nil {
		return fmt.Errorf("add source: %w", err)
	}

	if err := a.success("Source added", map[string]any{
		"name":    src.Name,
		"kind":    src.Kind,
		"url":     src.URL,
		"enabled": true,
	}); err != nil {
		return err
	}
	a.info("Name: %s", src.Name)
	a.info("Kind: %s", src.Kind)
	a.info("URL: %s", src.URL)
	a.info("Status: Enabled")
	return nil
}

func (a *app) sourceList(ctx context.Context) error {
	st, err := a.stores(ctx)
	if err != nil {
		return err
	}

	sources, err := st.sources.List(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if a.jsonOut {
		if sources == nil {
			sources = []domain.Source{}
		}
		return a.printJSON(sources)
	}
	if len(sources) == 0 {
		fmt.Fprintln(a.stdout, "No sources configured")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tENABLED\tLAST CHECKED\tURL")
	for _, s := range sources {
		checked := "never"
		if s.LastCheckedAt != nil {
			checked = s.LastCheckedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", s.Name, s.Kind, s.Enabled, checked, s.URL)
	}
	return w.Flush()
}

func (a *app) sourceSetEnabled(ctx context.Context, name string, enabled bool) error {
	st, err := a.stores(ctx)
	if err != nil {
		return err
	}
	if err := st.sources.SetEnabled(ctx, name, enabled); err != nil {
		return fmt.Errorf("update source: %w", err)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return a.success(fmt.Sprintf("Source %s %s", name, state), map[string]any{"name": name, "enabled": enabled})
}
