package visuals

import (
	"strings"
	"testing"

	"req-oracle/internal/capacity"
	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

func TestGenerateHireHistogram(t *testing.T) {
	tests := []struct {
		name     string
		days     []int
		wantBins int
		empty    bool
	}{
		{"no journeys", nil, 0, true},
		{"narrow span", []int{10, 10, 11, 14}, 5, false},
		{"wide span is binned", []int{0, 100, 200, 299}, 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := GenerateHireHistogram(simulation.Result{SimulatedDays: tt.days})
			if tt.empty {
				if out != "" {
					t.Errorf("expected empty chart, got %q", out)
				}
				return
			}
			if !strings.HasPrefix(out, "```mermaid\nxychart-beta") {
				t.Fatalf("unexpected chart header: %q", out)
			}
			var bar string
			for _, line := range strings.Split(out, "\n") {
				if strings.HasPrefix(strings.TrimSpace(line), "bar [") {
					bar = strings.TrimSpace(line)
				}
			}
			if got := len(strings.Split(bar, ",")); got != tt.wantBins {
				t.Errorf("expected %d bins, got %d (%s)", tt.wantBins, got, bar)
			}
		})
	}
}

func TestGenerateHireHistogram_DoesNotReorderInput(t *testing.T) {
	days := []int{5, 1, 3}
	GenerateHireHistogram(simulation.Result{SimulatedDays: days})
	if days[0] != 5 || days[1] != 1 {
		t.Errorf("input slice was mutated: %v", days)
	}
}

func TestGenerateForecastCDF(t *testing.T) {
	days := make([]int, 100)
	for i := range days {
		days[i] = i
	}
	out := GenerateForecastCDF(simulation.Result{SimulatedDays: days})
	if !strings.Contains(out, "bar [10, 30, 50, 70, 85, 90, 95]") {
		t.Errorf("unexpected percentile bar: %s", out)
	}
}

func TestGenerateBottleneckChart(t *testing.T) {
	if out := GenerateBottleneckChart([]capacity.StageDiagnostic{{Stage: pipeline.Screen}}); out != "" {
		t.Errorf("expected no chart without delay, got %q", out)
	}

	out := GenerateBottleneckChart([]capacity.StageDiagnostic{
		{Stage: pipeline.Screen, QueueDelayDays: 3.5},
		{Stage: pipeline.Offer, QueueDelayDays: 21},
	})
	if !strings.Contains(out, "bar [3.5, 21.0]") {
		t.Errorf("unexpected bars: %s", out)
	}
	if !strings.Contains(out, "\"OFFER\"") {
		t.Errorf("expected stage labels: %s", out)
	}
}

func TestGenerateOutcomePie(t *testing.T) {
	out := GenerateOutcomePie(simulation.Result{
		SimulatedDays: []int{1, 2, 3},
		Debug:         simulation.Debug{Iterations: 10},
	})
	if !strings.Contains(out, "\"Hired\" : 3") || !strings.Contains(out, "\"Dropped out\" : 7") {
		t.Errorf("unexpected pie: %s", out)
	}
}

func TestGenerateWhatIfChart(t *testing.T) {
	out := GenerateWhatIfChart(
		simulation.Result{P10Days: 10, P50Days: 20, P90Days: 30},
		simulation.Result{P10Days: 8, P50Days: 15, P90Days: 25},
	)
	if !strings.Contains(out, "line [10, 20, 30]") || !strings.Contains(out, "line [8, 15, 25]") {
		t.Errorf("unexpected what-if chart: %s", out)
	}
}
