package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"forum_relay/internal/translator"
)

func newTranslatorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translator",
		Short: "Inspect translation backends",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available backends",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.translatorList(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "usage [backend]",
			Short: "Show usage statistics of a backend (default: the active one)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				return a.translatorUsage(cmd.Context(), name)
			},
		},
	)
	return cmd
}

// activeTranslator resolves the backend name: config file override first,
// then the stored user config.
func (a *app) activeTranslator(ctx context.Context) (string, error) {
	if a.cfg.Monitor.Translator != "" {
		return a.cfg.Monitor.Translator, nil
	}
	cfg, err := a.loadUserConfig(ctx)
	if err != nil {
		return "", err
	}
	return cfg.TranslatorService, nil
}

func (a *app) translatorList(ctx context.Context) error {
	active, err := a.activeTranslator(ctx)
	if err != nil {
		active = ""
	}

	if a.jsonOut {
		return a.printJSON(map[string]any{"available": translator.Available(), "active": active})
	}
	for _, name := range translator.Available() {
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(a.stdout, "%s %s\n", marker, name)
	}
	return nil
}

func (a *app) translatorUsage(ctx context.Context, name string) error {
	if name == "" {
		active, err := a.activeTranslator(ctx)
		if err != nil {
			return err
		}
		name = active
	}

	t, err := translator.New(name, a.cfg.Translators, a.logger)
	if err != nil {
		return err
	}

	usage := t.Usage(ctx)
	if a.jsonOut {
		return a.printJSON(usage)
	}

	keys := make([]string, 0, len(usage))
	for k := range usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.stdout, "%s: %v\n", k, usage[k])
	}
	return nil
}
