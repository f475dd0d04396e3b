package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rwcarlsen/cpso"
	"github.com/rwcarlsen/cpso/bench"
	"github.com/rwcarlsen/cpso/internal/config"
	"github.com/rwcarlsen/cpso/internal/logging"
	"github.com/rwcarlsen/cpso/metrics"
	"github.com/rwcarlsen/cpso/swarm"
	"github.com/rwcarlsen/cpso/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigFile string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <benchmark>",
		Short: "Minimize a benchmark problem with the particle swarm",
		Long: `Minimize one of the built-in benchmark problems (see "cpso bench list").

Every flag may also be set in a YAML config file (--config) using the flag
name as key, or through a CPSO_ environment variable, e.g.
CPSO_SWARM_SIZE=50.  Flags win over the environment, which wins over the
config file.

The exit code is 1 when no feasible solution was found and 2 on errors.

Example:
  cpso run Disk --seed 42
  cpso run Rosenbrock_10D --swarm-size 200 --max-iter 1000 --workers 4 -v
  cpso run HalfLine --trace run.sqlite --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwarm(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	config.BindFlags(cmd.Flags())

	return cmd
}

func runSwarm(opts *RunOptions, name string, cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags(), opts.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	fn, ok := bench.Lookup(name)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown benchmark %q (see \"cpso bench list\")", name))
	}
	prob, err := bench.Problem(fn)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build problem", err)
	}
	cfg.ApplyConstraintTol(prob)

	swarmOpts, err := cfg.SwarmOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	it, err := swarm.NewIterator(prob.Space, swarmOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid swarm configuration", err)
	}

	log := logging.NewLogger(opts.Verbose, cmd.ErrOrStderr()).WithValues("problem", name)

	s := cpso.NewSolver(it, prob)
	s.Settings = cfg.Settings()
	s.Verbose = opts.Verbose >= logging.DEBUG
	s.Log = log

	var rec *trace.Recorder
	if cfg.Trace != "" {
		rec, err = trace.Open(cfg.Trace, prob.Space.Dims())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer rec.Close()
		log.V(logging.DEBUG).Info("tracing run", "db", cfg.Trace, "run", rec.RunID())
		s.Observers = append(s.Observers, rec)
	}

	var (
		reg  *prometheus.Registry
		coll *metrics.Collector
	)
	if cfg.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		coll, err = metrics.New(reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		s.Observers = append(s.Observers, coll)
	}

	ctx, cancel := signalContext(cmd, log)
	defer cancel()

	res, runErr := s.Run(ctx)
	if res == nil {
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}

	if rec != nil {
		if err := rec.Finish(res); err != nil {
			return WrapExitError(ExitCommandError, "failed to record result", err)
		}
	}
	if coll != nil {
		coll.Finish(res)
		if err := metrics.WriteTextfile(cfg.MetricsFile, reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if err := writeResult(cmd.OutOrStdout(), opts.Format, res); err != nil {
		return WrapExitError(ExitCommandError, "failed to write result", err)
	}

	switch {
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		return WrapExitError(ExitCommandError, "run stopped", runErr)
	case !res.Feasible:
		return WrapExitError(ExitNoFeasible, name, res.Err())
	}
	return nil
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM.  The search then stops after the current generation
// and the partial result is reported.
func signalContext(cmd *cobra.Command, log logr.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping search", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
