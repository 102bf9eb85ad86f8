package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/softfloat-lab/internal/logging"
	"github.com/danielpatrickdp/softfloat-lab/internal/rpc"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
)

type options struct {
	Listen        string `long:"listen" env:"SOFTFLOAT_LISTEN" default:"localhost:50051" description:"gRPC listen address"`
	MetricsListen string `long:"metrics-listen" default:"localhost:9090" description:"HTTP address serving /metrics; empty disables it"`
	DB            string `long:"db" env:"SOFTFLOAT_DB" description:"SQLite run store for Rank results (optional)"`
	LogLevel      string `long:"log-level" default:"info" description:"debug, info, warn or error"`
	LogFormat     string `long:"log-format" default:"text" choice:"text" choice:"json" description:"log output format"`
}

// #region main
func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger, err := logging.NewLogger(opts.LogLevel, opts.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, opts, logger); err != nil {
		logger.WithError(err).Fatal("lab server stopped")
	}
}

// #endregion main

// #region serve
func serve(ctx context.Context, opts options, log *logrus.Logger) error {
	var st *store.Store
	if opts.DB != "" {
		var err error
		if st, err = store.NewStore(opts.DB); err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := rpc.NewMetrics(reg)

	srv := grpc.NewServer(grpc.UnaryInterceptor(metrics.UnaryInterceptor()))
	rpc.RegisterLabServer(srv, rpc.NewServer(log, metrics, st))

	lis, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Listen, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": lis.Addr().String(), "service": rpc.ServiceName}).Info("grpc serving")
		return srv.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.GracefulStop()
		return nil
	})

	if opts.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		httpSrv := &http.Server{Addr: opts.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.WithField("addr", opts.MetricsListen).Info("metrics serving")
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// #endregion serve
