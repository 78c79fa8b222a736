package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/action"
	bt "github.com/fwojciec/codey/bubbletea"
	"github.com/fwojciec/codey/chat"
	"github.com/fwojciec/codey/chroma"
	"github.com/fwojciec/codey/config"
	"github.com/fwojciec/codey/fs"
	"github.com/fwojciec/codey/palette"
	"github.com/fwojciec/codey/suggest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	provider   string
	apiKey     string
	verbose    bool
}

func (o *options) configFile() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func (o *options) open(ctx context.Context) (*app, error) {
	path, err := o.configFile()
	if err != nil {
		return nil, err
	}
	return openApp(ctx, path, o.verbose)
}

func newRootCmd(env environment) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "codey",
		Short: "A streaming coding assistant for the terminal",
		Long: `Codey is a conversational coding assistant.

Run without arguments to start the chat interface. Conversations are saved
after every change and restored on the next start.

Keys:
  enter send · alt+enter newline · esc stop · ctrl+o mode · ctrl+l sessions
  ctrl+n new chat · ctrl+t themes · alt+↑/↓ select code · alt+r refactor
  alt+e explain · alt+c copy · alt+v dictate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return runChat(cmd.Context(), a, o, env)
		},
	}
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Path to config file (default ~/.codey/config.toml)")
	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log at debug level")
	cmd.Flags().StringVar(&o.provider, "provider", "", "Provider: gemini, anthropic (auto-detected from env vars if omitted)")
	cmd.Flags().StringVar(&o.apiKey, "api-key", "", "API key (overrides the provider's env var)")

	cmd.AddCommand(newSessionsCmd(o), newExportCmd(o), newConfigCmd(o))
	return cmd
}

// runChat wires the conversation core to the TUI and blocks until it exits.
func runChat(ctx context.Context, a *app, o *options, env environment) error {
	name := o.provider
	if name == "" {
		name = a.cfg.Provider
	}
	name, err := detectProvider(name, env)
	if err != nil {
		return err
	}
	a.cfg.Provider = name
	provider, err := newProvider(ctx, name, o.apiKey, env)
	if err != nil {
		return err
	}

	// The persisted UI state wins over the config defaults.
	ui := a.store.UI()
	if ui.Mode == "" {
		mode, err := codey.ParseMode(a.cfg.Mode)
		if err != nil {
			return err
		}
		ui.Mode = mode
	}
	if ui.Theme == "" {
		ui.Theme = a.cfg.UI.Theme
	}
	a.store.SetUI(ui)

	utility := a.cfg.UtilityModel()
	ctrl := chat.NewController(a.store, provider,
		chat.WithProfiles(a.cfg.Profiles()),
		chat.WithMode(ui.Mode),
		chat.WithLogger(a.logger.Named("chat")))

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	opts := []bt.Option{
		bt.WithActions(action.NewCoordinator(provider,
			action.WithModel(utility),
			action.WithLogger(a.logger.Named("action")))),
		bt.WithThemeGenerator(palette.NewGenerator(provider, utility)),
		bt.WithFileReader(fs.NewReader(wd)),
		bt.WithHighlighter(chroma.New(chroma.WithStyle(a.cfg.UI.CodeStyle))),
		bt.WithLogger(a.logger.Named("tui")),
	}
	if a.cfg.Suggest.Enabled {
		completer := suggest.New(provider,
			suggest.WithPolicy(a.cfg.Suggest.Policy()),
			suggest.WithModel(utility),
			suggest.WithLogger(a.logger.Named("suggest")))
		opts = append(opts, bt.WithCompleter(completer, a.cfg.Suggest.Debounce))
	}

	a.logger.Info("starting",
		zap.String("provider", name),
		zap.String("mode", string(ui.Mode)),
		zap.String("session", a.store.ActiveID()))
	if err := bt.Run(ctx, bt.New(a.store, ctrl, opts...)); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func newConfigCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := o.configFile()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}
