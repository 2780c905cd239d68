package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldops/siteqr/api"
	"github.com/fieldops/siteqr/audit"
	"github.com/fieldops/siteqr/config"
	"github.com/fieldops/siteqr/drive"
	"github.com/fieldops/siteqr/label"
	"github.com/fieldops/siteqr/store"
)

var version = "v0.3.1"

func main() {
	// Load .env if present; real env vars still win inside config.Load.
	godotenv.Load()

	root := &cobra.Command{
		Use:   "siteqr",
		Short: "Site registry with Google Drive proxying and QR label generation",
	}

	// --- start command -------------------------------------------------------
	var configPath string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(configPath)
		},
	}
	startCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(startCmd)

	// --- status command ------------------------------------------------------
	var statusAddr string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check the service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(statusAddr)
		},
	}
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:5000", "Service HTTP address")
	root.AddCommand(statusCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("siteqr %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runStart is the main service entrypoint that wires all components together.
func runStart(configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("ensure dirs: %w", err)
	}

	// 2. Setup logger
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	log.Info("starting siteqr", "version", version, "port", cfg.Port, "data_dir", cfg.DataDir)

	if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
		log.Warn("oauth client credentials not configured; sign-in will fail")
	}

	// 3. Open store
	st, err := store.Open(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// 4. Auth + Drive
	auth := drive.NewAuthenticator(
		cfg.OAuth.ClientID,
		cfg.OAuth.ClientSecret,
		cfg.OAuth.RedirectURL,
		cfg.OAuth.Scopes,
	)
	factory := drive.NewFactory(auth.OAuthConfig())

	// 5. Label composer
	composer := label.NewComposer(labelConfig(cfg.Label))

	// 6. Audit sender
	auditor := audit.NewSender(cfg.Splunk.HECURL, cfg.Splunk.HECToken, log)
	if cfg.Splunk.HECURL == "" {
		log.Debug("splunk audit disabled (no hec_url)")
	}

	// 7. Background session purge
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.Sessions().StartPurgeLoop(ctx, time.Hour, log)

	// 8. Start HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(&api.Server{
			Sites:     st.Sites(),
			Sessions:  st.Sessions(),
			Drive:     factory,
			Auth:      auth,
			Composer:  composer,
			Audit:     auditor,
			Log:       log,
			Version:   version,
			StartTime: time.Now(),

			QRCodesDir:        cfg.QRCodesDir,
			PublicBaseURL:     cfg.PublicBaseURL,
			FrontendOrigin:    cfg.FrontendOrigin,
			TemplatesFolderID: cfg.TemplatesFolderID,
			SessionTTL:        cfg.SessionTTL.Duration,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("service is running", "sign_in_url", fmt.Sprintf("http://localhost:%d/auth/google", cfg.Port))

	// 9. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}

// labelConfig maps the config file's label section onto the composer's
// defaults, leaving unset knobs untouched.
func labelConfig(lc config.Label) label.Config {
	cfg := label.DefaultConfig()
	if lc.ModuleSize > 0 {
		cfg.ModuleSize = lc.ModuleSize
	}
	if lc.Border > 0 {
		cfg.Border = lc.Border
	}
	if lc.SidePadding > 0 {
		cfg.SidePadding = lc.SidePadding
	}
	if lc.TopPadding > 0 {
		cfg.TopPadding = lc.TopPadding
	}
	if lc.BottomPadding > 0 {
		cfg.BottomPadding = lc.BottomPadding
	}
	if lc.LineGap > 0 {
		cfg.LineGap = lc.LineGap
	}
	if lc.BlockGap > 0 {
		cfg.BlockGap = lc.BlockGap
	}
	if lc.MinCaptionHeight > 0 {
		cfg.MinCaptionHeight = lc.MinCaptionHeight
	}
	if lc.FontSize > 0 {
		cfg.FontSize = lc.FontSize
	}
	if len(lc.FontPaths) > 0 {
		cfg.FontPaths = lc.FontPaths
	}
	return cfg
}

// runStatus queries the service status endpoint.
func runStatus(addr string) error {
	resp, err := http.Get(addr + "/api/status")
	if err != nil {
		return fmt.Errorf("failed to reach service at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	var buf [4096]byte
	n, _ := resp.Body.Read(buf[:])
	fmt.Println(string(buf[:n]))
	return nil
}
