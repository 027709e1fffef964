// Package config resolves solver options from defaults, a CUE config file
// and KBOUND_* environment variables, in that order. Command-line flags are
// applied last by the CLI.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"

	"github.com/roach88/kbound/internal/downset"
	"github.com/roach88/kbound/internal/scheduler"
	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/vector"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KBOUND_"

// Options are the user-facing solver settings. Options is a value type;
// every layer returns a modified copy.
type Options struct {
	K int `env:"K"`
	// KMin is the first bound tried; 0 means K.
	KMin       int    `env:"KMIN"`
	KInc       int    `env:"KINC"`
	Workers    int    `env:"WORKERS"`
	Pruning    bool   `env:"PRUNING"`
	Heuristic  string `env:"HEURISTIC"`
	Invariants bool   `env:"INVARIANTS"`
	Downset    string `env:"DOWNSET"`
	Vectors    string `env:"VECTORS"`
	Verbose    bool   `env:"VERBOSE"`
}

// Default solves at K=3 in one attempt on one worker.
func Default() Options {
	return Options{
		K:          3,
		KInc:       1,
		Workers:    1,
		Pruning:    true,
		Heuristic:  solver.First.String(),
		Invariants: true,
		Downset:    downset.Auto.String(),
		Vectors:    vector.Auto.String(),
	}
}

// fileDoc mirrors #Options; nil fields were absent from the file.
type fileDoc struct {
	K          *int    `json:"k"`
	KMin       *int    `json:"kmin"`
	KInc       *int    `json:"kinc"`
	Workers    *int    `json:"workers"`
	Pruning    *bool   `json:"pruning"`
	Heuristic  *string `json:"heuristic"`
	Invariants *bool   `json:"invariants"`
	Downset    *string `json:"downset"`
	Vectors    *string `json:"vectors"`
	Verbose    *bool   `json:"verbose"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// WithFile overlays the settings of a CUE file, validated against the
// embedded schema.
func (o Options) WithFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return o, loadFailed(path, err)
	}
	return o.WithCUE(data, path)
}

// WithCUE overlays CUE source. filename names it in errors.
func (o Options) WithCUE(data []byte, filename string) (Options, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		panic("config: embedded schema: " + err.Error())
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return o, loadFailed(filename, err)
	}
	v := schema.LookupPath(cue.ParsePath("#Options")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return o, loadFailed(filename, err)
	}

	var doc fileDoc
	if err := v.Decode(&doc); err != nil {
		return o, loadFailed(filename, err)
	}
	set(&o.K, doc.K)
	set(&o.KMin, doc.KMin)
	set(&o.KInc, doc.KInc)
	set(&o.Workers, doc.Workers)
	set(&o.Pruning, doc.Pruning)
	set(&o.Heuristic, doc.Heuristic)
	set(&o.Invariants, doc.Invariants)
	set(&o.Downset, doc.Downset)
	set(&o.Vectors, doc.Vectors)
	set(&o.Verbose, doc.Verbose)
	return o, nil
}

// WithEnv overlays KBOUND_* variables from environ. Unset variables leave
// their field unchanged.
func (o Options) WithEnv(environ map[string]string) (Options, error) {
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return o, loadFailed("environment", err)
	}
	return o, nil
}

// Resolve layers Default, the optional file at path and environ, then
// validates the result.
func Resolve(path string, environ map[string]string) (Options, error) {
	o := Default()
	var err error
	if path != "" {
		if o, err = o.WithFile(path); err != nil {
			return o, err
		}
	}
	if o, err = o.WithEnv(environ); err != nil {
		return o, err
	}
	return o, o.Validate()
}

// Environ returns the process environment as a map.
func Environ() map[string]string { return env.ToMap(os.Environ()) }

// kmin resolves the KMin shorthand.
func (o Options) kmin() int {
	if o.KMin == 0 {
		return o.K
	}
	return o.KMin
}

// Validate checks ranges and enumerations.
func (o Options) Validate() error {
	if o.K < 1 || o.K > vector.MaxK {
		return invalid(ErrCodeInvalidK, "k", "bound %d outside [1,%d]", o.K, vector.MaxK)
	}
	if km := o.kmin(); km < 1 || km > o.K {
		return invalid(ErrCodeInvalidKMin, "kmin", "first bound %d outside [1,%d]", km, o.K)
	}
	if o.KInc < 1 {
		return invalid(ErrCodeInvalidKInc, "kinc", "increment %d must be positive", o.KInc)
	}
	if o.Workers < 1 {
		return invalid(ErrCodeInvalidWorkers, "workers", "%d workers", o.Workers)
	}
	if _, err := solver.ParseHeuristic(o.Heuristic); err != nil {
		return &Error{Code: ErrCodeInvalidHeuristic, Field: "heuristic", Message: "unsupported heuristic", Err: err}
	}
	if _, err := downset.ParseStrategy(o.Downset); err != nil {
		return &Error{Code: ErrCodeInvalidDownset, Field: "downset", Message: "unsupported strategy", Err: err}
	}
	if _, err := vector.ParseKind(o.Vectors); err != nil {
		return &Error{Code: ErrCodeInvalidVectors, Field: "vectors", Message: "unsupported encoding", Err: err}
	}
	return nil
}

// Context builds the immutable solver context. o must be valid.
func (o Options) Context(logger *slog.Logger, metrics *solver.Metrics) solver.Params {
	h, err := solver.ParseHeuristic(o.Heuristic)
	if err != nil {
		panic(fmt.Sprintf("config: Context on invalid options: %v", err))
	}
	ds, _ := downset.ParseStrategy(o.Downset)
	vk, _ := vector.ParseKind(o.Vectors)
	return solver.Params{
		K:         o.K,
		KMin:      o.kmin(),
		KInc:      o.KInc,
		Pruning:   o.Pruning,
		Heuristic: h,
		Vectors:   vk,
		Downsets:  ds,
		Logger:    logger,
		Metrics:   metrics,
	}
}

// SchedulerOptions maps the pool settings onto scheduler options.
func (o Options) SchedulerOptions() []scheduler.Option {
	return []scheduler.Option{
		scheduler.WithWorkers(o.Workers),
		scheduler.WithInvariants(o.Invariants),
	}
}

// LogLevel is Debug when Verbose is set.
func (o Options) LogLevel() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
