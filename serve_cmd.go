package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
	mydb "github.com/yumyai/kmerclust/pkg/db"
	"github.com/yumyai/kmerclust/pkg/handler"
	"github.com/yumyai/kmerclust/pkg/middle"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var (
		sqlitePath string
		addr       string
		maxTop     int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs as a read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(g)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			db, err := mydb.Open(ctx, sqlitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			dbctx := &handler.DBContext{DB: db, MaxTop: maxTop}
			reqLog := middle.CreateMiddlewareLogger(logger.ParseLevel(conf.LogLevel))
			defer reqLog.Sync()

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler.NewRouter(dbctx, reqLog),
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("Start:", zap.String("Version", VERSION))
			logger.Info("Open database on", zap.String("DB_LOC", sqlitePath))
			logger.Info("Server starting", zap.String("addr", addr))

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&sqlitePath, "sqlite", "", "SQLite result store")
	fl.StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	fl.IntVar(&maxTop, "max-top", 1000, "largest accepted ?top= value")
	_ = cmd.MarkFlagRequired("sqlite")

	return cmd
}
