package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"forum_relay/internal/domain"
	"forum_relay/internal/webhook"
)

func newWebhookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage delivery webhooks",
	}

	typed := func(use, short string, run func(ctx context.Context, t domain.TargetType) error) *cobra.Command {
		return &cobra.Command{
			Use:       use + " <discord|slack>",
			Short:     short,
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(domain.TargetDiscord), string(domain.TargetSlack)},
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := parseTargetType(args[0])
				if err != nil {
					return err
				}
				return run(cmd.Context(), t)
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <discord|slack> <url>",
			Short: "Set and enable a webhook URL",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := parseTargetType(args[0])
				if err != nil {
					return err
				}
				return a.webhookSet(cmd.Context(), t, args[1])
			},
		},
		typed("test", "Send a test message", a.webhookTest),
		typed("enable", "Enable a webhook", func(ctx context.Context, t domain.TargetType) error {
			return a.webhookSetEnabled(ctx, t, true)
		}),
		typed("disable", "Disable a webhook", func(ctx context.Context, t domain.TargetType) error {
			return a.webhookSetEnabled(ctx, t, false)
		}),
		&cobra.Command{
			Use:   "list",
			Short: "List configured webhooks",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.webhookList(cmd.Context())
			},
		},
	)
	return cmd
}

func parseTargetType(s string) (domain.TargetType, error) {
	t := domain.TargetType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unsupported webhook type %q (supported: discord, slack)", domain.ErrValidation, s)
	}
	return t, nil
}

func (a *app) webhookSet(ctx context.Context, t domain.TargetType, url string) error {
	if err := webhook.ValidateURL(t, url); err != nil {
		return err
	}

	st, err := a.stores(ctx)
	if err != nil {
		return err
	}

	var target *domain.WebhookTarget
	err = st.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := st.webhooks.Upsert(ctx, t, url); err != nil {
			return err
		}
		if err := st.webhooks.SetEnabled(ctx, t, true); err != nil {
			return err
		}
		got, err := st.webhooks.Get(ctx, t)
		if err != nil {
			return err
		}
		target = got
		return nil
	})
	if err != nil {
		return fmt.Errorf("save webhook: %w", err)
	}

	if err := a.success(fmt.Sprintf("%s webhook configured", t), map[string]any{
		"type":        t,
		"url_preview": target.RedactedURL(),
		"enabled":     true,
	}); err != nil {
		return err
	}
	a.info("URL: %s", target.RedactedURL())
	a.info("Status: Enabled")
	return nil
}

func (a *app) webhookTest(ctx context.Context, t domain.TargetType) error {
	st, err := a.stores(ctx)
	if err != nil {
		return err
	}

	target, err := st.webhooks.Get(ctx, t)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s webhook not configured", t)
	}
	if err != nil {
		return fmt.Errorf("get webhook: %w", err)
	}

	a.info("Testing %s webhook...", t)

	result := webhook.NewSender(a.cfg.Webhook, a.logger).Test(ctx, *target)
	if !result.Delivered {
		err := errors.New("test message delivery failed")
		if result.Err != nil {
			err = fmt.Errorf("test message delivery failed: %w", result.Err)
		}
		return withCode(exitValidation, err)
	}
	return a.success("Test message delivered successfully", map[string]any{
		"type":        t,
		"status_code": result.StatusCode,
	})
}

func (a *app) webhookSetEnabled(ctx context.Context, t domain.TargetType, enabled bool) error {
	st, err := a.stores(ctx)
	if err != nil {
		return err
	}
	if err := st.webhooks.SetEnabled(ctx, t, enabled); err != nil {
		return fmt.Errorf("update webhook: %w", err)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return a.success(fmt.Sprintf("%s webhook %s", t, state), map[string]any{"type": t, "enabled": enabled})
}

func (a *app) webhookList(ctx context.Context) error {
	st, err := a.stores(ctx)
	if err != nil {
		return err
	}

	targets, err := st.webhooks.List(ctx)
	if err != nil {
		return fmt.Errorf("list webhooks: %w", err)
	}

	if a.jsonOut {
		out := make([]map[string]any, 0, len(targets))
		for _, t := range targets {
			out = append(out, map[string]any{
				"type":        t.Type,
				"url_preview": t.RedactedURL(),
				"enabled":     t.Enabled,
			})
		}
		return a.printJSON(out)
	}
	if len(targets) == 0 {
		fmt.Fprintln(a.stdout, "No webhooks configured")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tENABLED\tURL")
	for _, t := range targets {
		fmt.Fprintf(w, "%s\t%t\t%s\n", t.Type, t.Enabled, t.RedactedURL())
	}
	return w.Flush()
}
