// Package automation runs scripted sequences of simulation runs described
// in YAML.
package automation

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cherrycore/internal/config"
	"github.com/san-kum/cherrycore/internal/experiment"
	"github.com/san-kum/cherrycore/internal/sim"
	"github.com/san-kum/cherrycore/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run: a preset with overrides applied by config key.
// Replicates above one run that many seeds in parallel; only single runs
// are recorded.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Provider   string             `yaml:"provider"`
	Overrides  map[string]float64 `yaml:"overrides"`
	Replicates int                `yaml:"replicates"`
	Save       bool               `yaml:"save"`
}

// StepResult is the outcome of one step. RunID is set when the step was
// saved.
type StepResult struct {
	Name      string
	RunID     string
	Summaries []sim.Summary
	Mean      map[string]float64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Runner executes scenarios. A nil Store skips saving.
type Runner struct {
	Store    *storage.Store
	Registry *experiment.Registry
	Logger   *log.Logger
}

// RunScenario executes all steps in order and stops at the first failure.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	registry := r.Registry
	if registry == nil {
		registry = experiment.NewRegistry()
	}

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", step.Preset, i+1)
		}
		logger.Printf("step %d/%d: %s", i+1, len(scenario.Steps), name)

		res, err := r.runStep(ctx, step, name, registry, logger)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		results = append(results, res)
	}

	return results, nil
}

func (r *Runner) runStep(ctx context.Context, step ScenarioStep, name string, registry *experiment.Registry, logger *log.Logger) (StepResult, error) {
	cfg := config.DefaultConfig()
	if step.Preset != "" {
		if cfg = config.GetPreset(step.Preset); cfg == nil {
			return StepResult{}, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	}
	for k, v := range step.Overrides {
		if err := cfg.Set(k, v); err != nil {
			return StepResult{}, err
		}
	}

	opts := []experiment.Option{experiment.WithRegistry(registry), experiment.WithLogger(logger)}
	if step.Provider != "" {
		opts = append(opts, experiment.WithProvider(step.Provider))
	}
	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return StepResult{}, err
	}

	res := StepResult{Name: name}
	if step.Replicates > 1 {
		res.Summaries, err = exp.Replicate(ctx, step.Replicates)
		if err != nil {
			return res, err
		}
		res.Mean = experiment.MeanMetrics(res.Summaries)
		return res, nil
	}

	var rec *storage.Recorder
	if step.Save && r.Store != nil {
		rec, err = r.Store.Create(storage.RunMetadata{
			Preset:    name,
			Seed:      cfg.Seed,
			Particles: cfg.Particles,
			Radius:    cfg.Radius,
			Dt:        cfg.Dt,
			Frames:    cfg.Frames,
			Params:    cfg.Params(),
		})
		if err != nil {
			return res, err
		}
		exp.Simulation().AddObserver(rec)
	}

	sum, err := exp.Run(ctx)
	if err != nil {
		return res, err
	}
	if rec != nil {
		if err := rec.Close(sum); err != nil {
			return res, err
		}
		res.RunID = rec.ID()
	}
	res.Summaries = []sim.Summary{sum}
	res.Mean = experiment.MeanMetrics(res.Summaries)
	return res, nil
}
