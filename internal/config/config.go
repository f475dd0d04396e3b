// Package config loads the settings of a command-line optimization run from
// flags, CPSO_* environment variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rwcarlsen/cpso"
	"github.com/rwcarlsen/cpso/swarm"
)

const EnvPrefix = "CPSO"

const (
	VelocityRandom = "random"
	VelocityZero   = "zero"
)

// Config mirrors the run flags.  Keys are the flag names, which are also
// the YAML keys and, upper-cased with '-' replaced by '_', the environment
// variable suffixes.
type Config struct {
	SwarmSize      int     `mapstructure:"swarm-size" yaml:"swarm-size"`
	MaxIter        int     `mapstructure:"max-iter" yaml:"max-iter"`
	Inertia        float64 `mapstructure:"inertia" yaml:"inertia"`
	Cognition      float64 `mapstructure:"cognition" yaml:"cognition"`
	Social         float64 `mapstructure:"social" yaml:"social"`
	StallLimit     int     `mapstructure:"stall-limit" yaml:"stall-limit"`
	ImprovementTol float64 `mapstructure:"improvement-tol" yaml:"improvement-tol"`
	// ConstraintTol raises the feasibility tolerance of the problem's
	// constraints.  It never lowers a tolerance the problem already has.
	ConstraintTol float64 `mapstructure:"constraint-tol" yaml:"constraint-tol"`
	// Seed of the run's random source, -1 for a random seed.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	// Workers > 1 evaluates each generation on that many goroutines.
	Workers     int     `mapstructure:"workers" yaml:"workers"`
	Velocity    string  `mapstructure:"velocity" yaml:"velocity"`
	Repair      string  `mapstructure:"repair" yaml:"repair"`
	MinStep     float64 `mapstructure:"min-step" yaml:"min-step"`
	MaxEvals    int     `mapstructure:"max-evals" yaml:"max-evals"`
	Archive     int     `mapstructure:"archive" yaml:"archive"`
	Trace       string  `mapstructure:"trace" yaml:"trace"`
	MetricsFile string  `mapstructure:"metrics-file" yaml:"metrics-file"`
}

func Defaults() Config {
	return Config{
		SwarmSize:      swarm.DefaultSwarmSize,
		MaxIter:        cpso.DefaultMaxIter,
		Inertia:        swarm.DefaultInertia,
		Cognition:      swarm.DefaultCognition,
		Social:         swarm.DefaultSocial,
		StallLimit:     cpso.DefaultStallLimit,
		ImprovementTol: cpso.DefaultImprovementTol,
		Seed:           -1,
		Workers:        1,
		Velocity:       VelocityRandom,
		Repair:         swarm.PolicyClampZero,
	}
}

// BindFlags registers the run flags on fs with their default values.
func BindFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.Int("swarm-size", d.SwarmSize, "number of particles")
	fs.Int("max-iter", d.MaxIter, "maximum number of generations after initialization")
	fs.Float64("inertia", d.Inertia, "particle inertia weight")
	fs.Float64("cognition", d.Cognition, "pull toward the particle's own best")
	fs.Float64("social", d.Social, "pull toward the swarm best")
	fs.Int("stall-limit", d.StallLimit, "generations without improvement before stopping (0 disables)")
	fs.Float64("improvement-tol", d.ImprovementTol, "smallest improvement of the feasible best that resets the stall counter")
	fs.Float64("constraint-tol", d.ConstraintTol, "constraint feasibility tolerance")
	fs.Int64("seed", d.Seed, "random seed (-1 for a random seed)")
	fs.Int("workers", d.Workers, "concurrent objective evaluations")
	fs.String("velocity", d.Velocity, "initial velocities: random|zero")
	fs.String("repair", d.Repair, "bound repair policy: clamp-zero|clamp|reflect")
	fs.Float64("min-step", d.MinStep, "stop once the feasible best moves less than this (0 disables)")
	fs.Int("max-evals", d.MaxEvals, "objective evaluation budget (0 for none)")
	fs.Int("archive", d.Archive, "number of best distinct positions to report")
	fs.String("trace", d.Trace, "record every generation to this SQLite database")
	fs.String("metrics-file", d.MetricsFile, "write Prometheus metrics to this textfile after the run")
}

// Load resolves the configuration with precedence flags (when set on the
// command line), environment, config file and defaults.  path may be empty.
func Load(fs *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()
	d := Defaults()
	setDefaults(v, d)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("binding flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, c.Validate()
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("swarm-size", d.SwarmSize)
	v.SetDefault("max-iter", d.MaxIter)
	v.SetDefault("inertia", d.Inertia)
	v.SetDefault("cognition", d.Cognition)
	v.SetDefault("social", d.Social)
	v.SetDefault("stall-limit", d.StallLimit)
	v.SetDefault("improvement-tol", d.ImprovementTol)
	v.SetDefault("constraint-tol", d.ConstraintTol)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("velocity", d.Velocity)
	v.SetDefault("repair", d.Repair)
	v.SetDefault("min-step", d.MinStep)
	v.SetDefault("max-evals", d.MaxEvals)
	v.SetDefault("archive", d.Archive)
	v.SetDefault("trace", d.Trace)
	v.SetDefault("metrics-file", d.MetricsFile)
}

// Validate checks the values only the command line interprets.  Swarm and
// termination parameters are checked again by the library when the run is
// built.
func (c Config) Validate() error {
	var errs []error
	if c.SwarmSize < 1 {
		errs = append(errs, fmt.Errorf("swarm-size must be >= 1, got %d", c.SwarmSize))
	}
	if c.Seed < -1 {
		errs = append(errs, fmt.Errorf("seed must be >= -1, got %d", c.Seed))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if !(c.ConstraintTol >= 0) {
		errs = append(errs, fmt.Errorf("constraint-tol must be >= 0, got %v", c.ConstraintTol))
	}
	if c.Velocity != VelocityRandom && c.Velocity != VelocityZero {
		errs = append(errs, fmt.Errorf("velocity must be %q or %q, got %q", VelocityRandom, VelocityZero, c.Velocity))
	}
	if _, err := swarm.RepairPolicy(c.Repair); err != nil {
		errs = append(errs, err)
	}
	if err := c.Settings().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) Settings() cpso.Settings {
	return cpso.Settings{
		MaxIter:        c.MaxIter,
		MaxEvals:       c.MaxEvals,
		StallLimit:     c.StallLimit,
		ImprovementTol: c.ImprovementTol,
		MinStep:        c.MinStep,
		ArchiveSize:    c.Archive,
	}
}

// SwarmOptions translates the configuration into swarm options.
func (c Config) SwarmOptions() ([]swarm.Option, error) {
	repair, err := swarm.RepairPolicy(c.Repair)
	if err != nil {
		return nil, err
	}

	opts := []swarm.Option{
		swarm.Size(c.SwarmSize),
		swarm.FixedInertia(c.Inertia),
		swarm.LearnFactors(c.Cognition, c.Social),
		swarm.Repair(repair),
	}
	if c.Seed >= 0 {
		opts = append(opts, swarm.Seed(uint64(c.Seed)))
	}
	if c.Velocity == VelocityZero {
		opts = append(opts, swarm.ZeroVelocity())
	}
	if c.Workers > 1 {
		opts = append(opts, swarm.Evaler(cpso.ParallelEvaler{Workers: c.Workers}))
	}
	return opts, nil
}

// ApplyConstraintTol raises the tolerance of prob's constraints to at least
// c.ConstraintTol.
func (c Config) ApplyConstraintTol(prob *cpso.Problem) {
	if prob.Cons != nil && c.ConstraintTol > prob.Cons.Tol {
		prob.Cons.Tol = c.ConstraintTol
	}
}
