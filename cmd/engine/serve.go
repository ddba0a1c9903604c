package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vagahunter-engine/internal/config"
	"vagahunter-engine/internal/events"
	"vagahunter-engine/internal/httpapi"
	"vagahunter-engine/internal/poll"
	"vagahunter-engine/internal/secrets"
	"vagahunter-engine/internal/store"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the watch-query poller",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := currentConfig()

		lock, err := store.LockDataDir(cfg.App.DataDir)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Unlock() }()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		hub := events.NewHub()
		eng, err := newEngine(ctx, cfg, st, hub)
		if err != nil {
			return err
		}

		poller := poll.New(eng, &cfgVal)
		go poller.Start(ctx)

		handler := httpapi.NewRouter(httpapi.Deps{
			Search:      eng,
			Jobs:        st,
			Poller:      poller,
			Hub:         hub,
			BaseCtx:     ctx,
			CfgVal:      &cfgVal,
			UserCfgPath: userCfgPath,
			LoadCfg:     loadConfig,
			SetAPIKey:   secrets.SetAPIKey,
			Reload: func(c config.Config) error {
				return eng.reload(ctx, c)
			},
		})

		port := servePort
		if port == 0 {
			port = cfg.App.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", serveHost, port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()

		zap.L().Info("engine listening",
			zap.String("addr", srv.Addr),
			zap.String("data_dir", cfg.App.DataDir),
			zap.Strings("sources", cfg.Scraper.Sources),
			zap.String("ai_provider", cfg.AI.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "interface to bind")
	rootCmd.AddCommand(serveCmd)
}
