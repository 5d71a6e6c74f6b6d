package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/san-kum/springsim/internal/config"
	"github.com/san-kum/springsim/internal/storage"
)

const scenarioYAML = `name: stiffness study
description: a soft and a stiff pendulum
steps:
  - preset: pendulum
    duration: 1
    params:
      stiffness: 0.5
    save_as: soft
  - config: rigs/stiff.yaml
    dt: 0.01
    duration: 1
    save_as: stiff
`

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(dir, "rigs"), 0755); err != nil {
		t.Fatal(err)
	}
	stiff := config.GetPreset("pendulum")
	stiff.SpringBones[0].Stiffness = 4
	if err := config.Save(filepath.Join(dir, "rigs", "stiff.yaml"), stiff); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if sc.Name != "stiffness study" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[0].Params["stiffness"] != 0.5 {
		t.Errorf("expected stiffness param 0.5, got %v", sc.Steps[0].Params)
	}
	if !filepath.IsAbs(sc.Steps[1].Config) {
		t.Errorf("expected config path resolved against the scenario, got %s", sc.Steps[1].Config)
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatal(err)
	}

	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := NewRunner(st, testr.New(t)).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Rig != "soft" || results[1].Rig != "stiff" {
		t.Errorf("unexpected rig names %s, %s", results[0].Rig, results[1].Rig)
	}
	if results[0].Result.StepsTaken != 60 {
		t.Errorf("expected 60 steps at the default dt, got %d", results[0].Result.StepsTaken)
	}
	if results[1].Result.StepsTaken != 100 {
		t.Errorf("expected 100 steps at dt 0.01, got %d", results[1].Result.StepsTaken)
	}

	soft := results[0].Result.Metrics["swing_angle"]
	stiff := results[1].Result.Metrics["swing_angle"]
	if stiff >= soft {
		t.Errorf("expected the stiff chain to swing less: soft %f, stiff %f", soft, stiff)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 stored runs, got %d", len(runs))
	}
	for _, r := range results {
		if r.RunID == "" {
			t.Error("expected a run id for every stored step")
		}
	}
}

func TestRunScenarioStopsOnError(t *testing.T) {
	sc := &Scenario{
		Name: "broken",
		Steps: []ScenarioStep{
			{Preset: "pendulum", Duration: 0.5},
			{Preset: "nope"},
			{Preset: "pendulum"},
		},
	}

	results, err := NewRunner(nil, testr.New(t)).Run(context.Background(), sc)
	if err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step to complete, got %d results", len(results))
	}
	if results[0].RunID != "" {
		t.Error("expected no run id without a store")
	}
}

func TestScenarioStepRig(t *testing.T) {
	tests := []struct {
		name string
		step ScenarioStep
		ok   bool
	}{
		{"preset", ScenarioStep{Preset: "skirt"}, true},
		{"empty", ScenarioStep{}, false},
		{"missing file", ScenarioStep{Config: "/nonexistent/rig.yaml"}, false},
		{"bad param", ScenarioStep{Preset: "tail", Params: map[string]float64{"mass": 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.step.rig()
			if (err == nil) != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}
