package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/san-kum/springsim/internal/config"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/experiment"
	"github.com/san-kum/springsim/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of rig runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep runs one rig, taken from a preset or a rig file. Dt and
// Duration override the rig when positive; Params are chain parameters
// applied to every spring bone group.
type ScenarioStep struct {
	Preset   string             `yaml:"preset,omitempty"`
	Config   string             `yaml:"config,omitempty"`
	Dt       float64            `yaml:"dt,omitempty"`
	Duration float64            `yaml:"duration,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	SaveAs   string             `yaml:"save_as,omitempty"`
}

// StepResult is the outcome of one step. RunID is empty unless the run
// was stored.
type StepResult struct {
	Rig    string
	RunID  string
	Result *dynamo.Result
}

// LoadScenario loads a scenario from a YAML file. Rig file paths in steps
// are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		if c := scenario.Steps[i].Config; c != "" && !filepath.IsAbs(c) {
			scenario.Steps[i].Config = filepath.Join(dir, c)
		}
	}
	return &scenario, nil
}

// Runner executes scenarios. When Store is set every step is saved.
type Runner struct {
	Store  *storage.Store
	Logger logr.Logger
}

func NewRunner(store *storage.Store, log logr.Logger) *Runner {
	return &Runner{Store: store, Logger: log}
}

// Run executes all steps in order and stops at the first failure, returning
// the steps completed so far.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.rig()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		r.Logger.Info("running step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "rig", cfg.Name)

		exp := experiment.New(cfg, r.Logger)
		if err := exp.Setup(experiment.NewRegistry().DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Rig: cfg.Name, Result: result}
		if r.Store != nil {
			if sr.RunID, err = r.Store.Save(cfg, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

func (s ScenarioStep) rig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		c, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	default:
		return nil, fmt.Errorf("step needs a preset or a config file")
	}

	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	for name, v := range s.Params {
		if err := cfg.SetChainParam(name, v); err != nil {
			return nil, err
		}
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}
