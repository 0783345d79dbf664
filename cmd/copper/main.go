package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ja7ad/copper/pkg/copper"
	"github.com/ja7ad/copper/pkg/metrics"
)

var (
	logLevel string
	noColor  bool
)

type opts struct {
	scenarioPath string

	// controller
	target     float64
	powerMin   float64
	powerMax   float64
	powerStart float64
	gainLimit  float64

	// loop
	window   int
	interval string
	seed     uint64
	ema      float64

	// outputs
	pretty    bool
	csvPath   string
	jsonPath  string
	logPath   string
	logLength int

	realtime    bool
	metricsAddr string
}

func main() {
	root := &cobra.Command{
		Use:   "copper",
		Short: "Performance-target power capping controller",
		Long: `The copper tool exercises the CoPPer controller: a Kalman filter workload
estimator and an adaptive pole-placement control law that turn measured
performance into a power cap within [min, max].

* GitHub: https://github.com/ja7ad/copper`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, noColor)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	root.AddCommand(newSimulateCmd(), newHeaderCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func setupLogging(level string, plain bool) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
			NoColor:    plain,
		}),
	))
	return nil
}

func newHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header",
		Short: "Print the column header of the controller log format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return copper.WriteHeader(cmd.OutOrStdout())
		},
	}
}

func newSimulateCmd() *cobra.Command {
	var o opts
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the controller against a synthetic application",
		Long: `Runs a closed loop against a synthetic application whose performance is
proportional to the applied cap. Plant phases, bounds and tuning come from a
YAML scenario (--config); flags override the scenario when set.

Examples:
  copper simulate
  copper simulate --config scenario.yaml --log copper.log --log-length 32
  copper simulate --gain-limit 0.3 --csv out.csv --json out.json
  copper simulate --realtime --metrics-addr :9101`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.scenarioPath, "config", "c", "", "YAML scenario file")

	f.Float64Var(&o.target, "target", 100, "performance target (> 0)")
	f.Float64Var(&o.powerMin, "p-min", 10, "minimum power cap in Watts")
	f.Float64Var(&o.powerMax, "p-max", 100, "maximum power cap in Watts")
	f.Float64Var(&o.powerStart, "p-start", 60, "starting power cap in Watts")
	f.Float64Var(&o.gainLimit, "gain-limit", 0, "gain limit [0..1)")

	f.IntVarP(&o.window, "window", "w", 2, "adapt every N iterations")
	f.StringVarP(&o.interval, "interval", "i", "100ms", "simulated time per iteration (e.g. 100ms, 1s)")
	f.Uint64Var(&o.seed, "seed", 1, "plant noise seed")
	f.Float64Var(&o.ema, "ema", 1, "EMA alpha for measured performance smoothing [0..1]")

	f.BoolVar(&o.pretty, "pretty", true, "print per-step rows as a table")
	f.StringVar(&o.csvPath, "csv", "", "write per-step rows to CSV file")
	f.StringVar(&o.jsonPath, "json", "", "write per-step rows to JSON file")
	f.StringVar(&o.logPath, "log", "", "write the controller log to this file (requires --log-length > 0)")
	f.IntVar(&o.logLength, "log-length", 0, "controller log buffer length (0 = disabled)")

	f.BoolVar(&o.realtime, "realtime", false, "sleep one interval per iteration")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9101)")
	return cmd
}

func runSimulate(cmd *cobra.Command, o opts) error {
	sc := DefaultScenario()
	if o.scenarioPath != "" {
		var err error
		if sc, err = LoadScenario(o.scenarioPath); err != nil {
			return err
		}
		slog.Info("scenario loaded", "path", o.scenarioPath, "phases", len(sc.Phases))
	}
	applyFlags(cmd, o, sc)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	so := simOptions{
		pretty:    o.pretty,
		csvPath:   o.csvPath,
		jsonPath:  o.jsonPath,
		logPath:   o.logPath,
		logLength: o.logLength,
		realtime:  o.realtime,
		name:      "simulate",
	}

	var srv *http.Server
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		so.metrics = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: o.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server", "err", err)
			}
		}()
		slog.Info("serving metrics", "addr", o.metricsAddr)
	}

	sum, err := simulate(ctx, sc, so, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), sc, sum)

	if srv != nil {
		slog.Info("simulation done, serving metrics until interrupted")
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
	return nil
}

// applyFlags overrides scenario fields with the flags the user set.
func applyFlags(cmd *cobra.Command, o opts, sc *Scenario) {
	f := cmd.Flags()
	if f.Changed("target") {
		sc.Target = o.target
	}
	if f.Changed("p-min") {
		sc.Power.Min = o.powerMin
	}
	if f.Changed("p-max") {
		sc.Power.Max = o.powerMax
	}
	if f.Changed("p-start") {
		sc.Power.Start = o.powerStart
	}
	if f.Changed("gain-limit") {
		sc.Tuning.GainLimit = o.gainLimit
	}
	if f.Changed("window") {
		sc.Window = o.window
	}
	if f.Changed("interval") {
		sc.Interval = o.interval
	}
	if f.Changed("seed") {
		sc.Seed = o.seed
	}
	if f.Changed("ema") {
		sc.EMA = o.ema
	}
}
