package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"forum_relay/internal/domain"
	"forum_relay/internal/translator"
)

var configKeys = []string{"language", "translator", "poll_interval"}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Initialize configuration with defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.configInit(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value (language, translator, poll_interval)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.configSet(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "get <key|all>",
			Short: "Show a configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.configGet(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}

func (a *app) configInit(ctx context.Context) error {
	st, err := a.stores(ctx)
	if err != nil {
		return err
	}

	if _, err := st.configs.Get(ctx); err == nil {
		return errors.New("configuration already exists, use 'config set' to modify")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get config: %w", err)
	}

	cfg, err := st.configs.Init(ctx)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	if err := a.success("Configuration initialized with defaults", configData(cfg)); err != nil {
		return err
	}
	a.info("language: %s", cfg.Language)
	a.info("translator: %s", cfg.TranslatorService)
	a.info("poll_interval: %d minutes", cfg.PollIntervalMinutes)
	return nil
}

func (a *app) configSet(ctx context.Context, key, value string) error {
	cfg, err := a.loadUserConfig(ctx)
	if err != nil {
		return err
	}

	switch key {
	case "language":
		lang := strings.ToLower(strings.TrimSpace(value))
		if lang == "" || len(lang) > 10 {
			return fmt.Errorf("%w: invalid language code %q", domain.ErrValidation, value)
		}
		cfg.Language = lang
	case "translator", "translator_service":
		if !translator.Valid(value) {
			return fmt.Errorf("%w: unknown translator %q (supported: %s)",
				domain.ErrValidation, value, strings.Join(translator.Available(), ", "))
		}
		cfg.TranslatorService = strings.ToLower(strings.TrimSpace(value))
	case "poll_interval":
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes <= 0 {
			return fmt.Errorf("%w: invalid poll_interval value %q (must be a positive integer)", domain.ErrValidation, value)
		}
		cfg.PollIntervalMinutes = minutes
	default:
		return fmt.Errorf("unknown configuration key %q (known: %s)", key, strings.Join(configKeys, ", "))
	}

	if err := a.st.configs.Update(ctx, cfg); err != nil {
		return fmt.Errorf("update config: %w", err)
	}

	if err := a.success("Configuration updated", map[string]any{key: value}); err != nil {
		return err
	}
	a.info("%s: %s", key, value)
	return nil
}

func (a *app) configGet(ctx context.Context, key string) error {
	cfg, err := a.loadUserConfig(ctx)
	if err != nil {
		return err
	}

	data := configData(cfg)
	if key == "all" {
		if a.jsonOut {
			return a.printJSON(data)
		}
		for _, k := range configKeys {
			fmt.Fprintf(a.stdout, "%s: %v\n", k, data[k])
		}
		return nil
	}

	if key == "translator_service" {
		key = "translator"
	}
	v, ok := data[key]
	if !ok {
		return fmt.Errorf("unknown configuration key %q (known: %s)", key, strings.Join(configKeys, ", "))
	}
	if a.jsonOut {
		return a.printJSON(map[string]any{key: v})
	}
	fmt.Fprintln(a.stdout, v)
	return nil
}

// loadUserConfig returns the stored user config; a missing row is a
// validation error so callers exit with the usage code.
func (a *app) loadUserConfig(ctx context.Context) (*domain.UserConfig, error) {
	st, err := a.stores(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := st.configs.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: configuration not found, run 'config init' first", domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return cfg, nil
}

func configData(cfg *domain.UserConfig) map[string]any {
	return map[string]any{
		"language":      cfg.Language,
		"translator":    cfg.TranslatorService,
		"poll_interval": cfg.PollIntervalMinutes,
	}
}
