package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cloudvar "github.com/cloudvarx/cloudvar-client-go"
)

var flagMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream variable changes as JSON lines",
	Long: `watch connects to the project and prints one JSON object per line
for every session event: open, close, error, setup, set, addvariable.
Pass --retries=0 to keep reconnecting forever.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

type watchLine struct {
	Event string `json:"event"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var metrics *cloudvar.Metrics
	if flagMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = cloudvar.NewMetrics(reg)
		go serveMetrics(flagMetricsAddr, reg, logger)
	}

	session, err := newSession(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	kinds := []cloudvar.EventKind{
		cloudvar.EventOpen, cloudvar.EventClose, cloudvar.EventError,
		cloudvar.EventSetup, cloudvar.EventSet, cloudvar.EventAddVariable,
	}
	for _, kind := range kinds {
		session.On(kind, func(ev cloudvar.Event) {
			line := watchLine{Event: ev.Kind.String(), Name: ev.Name, Value: ev.Value}
			if ev.Err != nil {
				line.Error = ev.Err.Error()
			}
			enc.Encode(line)
		})
	}

	if err := session.Connect(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-session.Done():
		return errors.New("connection gave up")
	}

	session.Close()
	<-session.Done()
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
