package main

import (
	"context"
	"fmt"
	"time"

	"github.com/RxDataLab/edgar-statements/internal/metrics"
	"github.com/RxDataLab/edgar-statements/internal/ui"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveHost != "" {
			cfg.Server.Host = serveHost
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		recorder := metrics.New(prometheus.DefaultRegisterer)
		p, err := newPipeline(false, recorder)
		if err != nil {
			return err
		}

		srv, err := ui.NewServer(p,
			ui.WithAddr(cfg.Server.Host, cfg.Server.Port),
			ui.WithShutdownTimeout(time.Duration(cfg.Server.ShutdownTimeout)*time.Second),
			ui.WithLogger(logger.With().Str("component", "http").Logger()),
			ui.WithRunObserver(recorder),
		)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.Background())
		})

		fmt.Printf("Open http://%s in your browser\n", srv.Addr())
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
}
