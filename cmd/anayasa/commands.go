package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofiber/fiber/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"anayasa/internal/api"
	"anayasa/internal/config"
	"anayasa/internal/prompt"
	"anayasa/internal/service"
	"anayasa/internal/tui"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "anayasa",
		Short:         "Answer questions about the constitution from its own articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/anayasa/config.yaml if not provided)")

	chat := newChatCmd(&cfgPath)
	root.RunE = chat.RunE
	root.AddCommand(chat, newAskCmd(&cfgPath), newServeCmd(&cfgPath))
	return root
}

// prepare loads config, wires the engine and builds its index.
func prepare(ctx context.Context, cfgPath string) (*service.Engine, *config.AppConfig, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := buildIndex(ctx, eng, cfg); err != nil {
		eng.Close()
		return nil, nil, err
	}
	return eng, cfg, nil
}

func newChatCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question and answer session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cfg, err := prepare(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer eng.Close()

			examples := tui.Examples(cfg.Prompt.Language)
			if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
				return lineChat(cmd.Context(), eng, os.Stdin, cmd.OutOrStdout())
			}
			m := tui.New(eng, chatTitle(cfg.Prompt.Language), examples)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// chatTitle is the shell heading for the configured answer language.
func chatTitle(lang string) string {
	p, err := prompt.Lookup(lang)
	if err != nil {
		return "Turkish Constitution Assistant"
	}
	return p.Title
}

// lineChat answers one question per input line. Failures are printed and
// the session continues.
func lineChat(ctx context.Context, eng *service.Engine, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		q := strings.TrimSpace(sc.Text())
		if q == "" {
			continue
		}
		ans, err := eng.Answer(ctx, q)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n\n", ans)
	}
	return sc.Err()
}

func newAskCmd(cfgPath *string) *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Answer a single question and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := prepare(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer eng.Close()

			ans, err := eng.Ask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ans.Text)
			if showSources {
				fmt.Fprintln(out)
				for _, s := range ans.Sources {
					fmt.Fprintf(out, "  %.3f  %s\n", s.Score, s.Unit.Label)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", false, "Also print the retrieved articles")
	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve questions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cfg, err := prepare(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer eng.Close()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			app := fiber.New(fiber.Config{DisableStartupMessage: true})
			api.RegisterRoutes(app, eng)
			log.Printf("server started at %s", addr)
			return app.Listen(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
