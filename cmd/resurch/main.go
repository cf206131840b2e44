// Package main is the entry point for the resurch terminal client.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/config"
	"github.com/csheth/resurch/internal/logger"
	"github.com/csheth/resurch/internal/session"
	"github.com/csheth/resurch/internal/starsync"
	"github.com/csheth/resurch/internal/tui"
)

// settings carries defaults, .env and RESURCH_* overrides; flags bind onto it.
var settings = config.New()

// app bundles the collaborators every command needs.
type app struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	catalog *catalog.Client
	session *session.Holder
	engine  *starsync.Engine
}

func newApp(logTarget string) (*app, error) {
	cfg, err := config.FromViper(settings)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logTarget != "" {
		cfg.LogFile = logTarget
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client := catalog.New(catalog.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
		Logger:  log,
	})
	holder := session.NewHolder()
	engine := starsync.New(starsync.Config{
		Session:       holder,
		Submitter:     client,
		SubmitTimeout: cfg.InteractionTimeout,
		Logger:        log,
	})
	holder.OnSignOut(engine.Reset)
	holder.SignIn(cfg.UserID)

	log.Infow("resurch starting", "api_url", cfg.APIURL, "signed_in", holder.Session().SignedIn())
	return &app{cfg: cfg, log: log, catalog: client, session: holder, engine: engine}, nil
}

var rootCmd = &cobra.Command{
	Use:   "resurch",
	Short: "Search papers, star the ones you like, read your feed",
	Long: `resurch is a terminal client for the Resurch paper service. The interactive
view has two pages: Calibration, where you search the corpus and star relevant
papers, and Your Feed, which lists recommendations derived from your stars.

Configuration comes from flags, RESURCH_* environment variables and a .env
file in the working directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("")
		if err != nil {
			return err
		}
		defer logger.Close()

		opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
		if noAlt, _ := cmd.Flags().GetBool("no-alt-screen"); !noAlt {
			opts = append(opts, tea.WithAltScreen())
		}
		program := tea.NewProgram(
			tui.New(tui.Config{
				Catalog:        a.catalog,
				Engine:         a.engine,
				Session:        a.session,
				SearchLimit:    a.cfg.SearchLimit,
				RequestTimeout: a.cfg.RequestTimeout,
				Logger:         a.log,
			}),
			opts...,
		)
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("program error: %w", err)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("api-url", config.DefaultAPIURL, "base URL of the catalog API")
	flags.String("user-id", "", "user id to act as (enables starring and the feed)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "log file path, or - for stderr")
	bindFlag("api_url", "api-url")
	bindFlag("user_id", "user-id")
	bindFlag("log_level", "log-level")
	bindFlag("log_file", "log-file")

	rootCmd.Flags().Bool("no-alt-screen", false, "disable the alternate screen buffer")
}

func bindFlag(key, name string) {
	if err := settings.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
