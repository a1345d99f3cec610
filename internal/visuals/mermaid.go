package visuals

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"req-oracle/internal/capacity"
	"req-oracle/internal/simulation"
	"req-oracle/internal/stats"
)

// maxHistogramBins keeps the x-axis readable in Mermaid's layout engine.
const maxHistogramBins = 30

// GenerateHireHistogram creates a Mermaid bar chart of simulated days-to-hire.
func GenerateHireHistogram(res simulation.Result) string {
	if len(res.SimulatedDays) == 0 {
		return ""
	}

	days := slices.Clone(res.SimulatedDays)
	slices.Sort(days)
	lo, hi := days[0], days[len(days)-1]

	width := 1
	if span := hi - lo + 1; span > maxHistogramBins {
		width = int(math.Ceil(float64(span) / maxHistogramBins))
	}

	counts := make([]int, (hi-lo)/width+1)
	for _, d := range days {
		counts[(d-lo)/width]++
	}

	var labels []string
	var values []string
	maxVal := 0
	for i, c := range counts {
		start := lo + i*width
		if width == 1 {
			labels = append(labels, fmt.Sprintf("\"%d\"", start))
		} else {
			labels = append(labels, fmt.Sprintf("\"%d-%d\"", start, start+width-1))
		}
		values = append(values, fmt.Sprintf("%d", c))
		if c > maxVal {
			maxVal = c
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Days to Hire (Simulated Journeys)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Journeys\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateForecastCDF creates a Mermaid bar chart of the hire-date percentiles.
func GenerateForecastCDF(res simulation.Result) string {
	if len(res.SimulatedDays) == 0 {
		return ""
	}

	days := slices.Clone(res.SimulatedDays)
	slices.Sort(days)

	levels := []struct {
		label string
		p     float64
	}{
		{"10% (Aggressive)", 0.10},
		{"30% (Unlikely)", 0.30},
		{"50% (Coin Toss)", 0.50},
		{"70% (Probable)", 0.70},
		{"85% (Likely)", 0.85},
		{"90% (Conservative)", 0.90},
		{"95% (Safe)", 0.95},
	}

	var labels []string
	var values []string
	for _, l := range levels {
		labels = append(labels, fmt.Sprintf("\"%s\"", l.label))
		values = append(values, fmt.Sprintf("%d", stats.PercentileDiscrete(days, l.p)))
	}

	maxVal := float64(days[len(days)-1])
	if maxVal == 0 {
		maxVal = 1
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Hire Date Forecast (Cumulative Probability)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Days from Start\" 0 --> %d\n", int(math.Ceil(maxVal*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateWhatIfChart compares baseline and adjusted P10/P50/P90 as two lines.
func GenerateWhatIfChart(baseline, adjusted simulation.Result) string {
	base := []int{baseline.P10Days, baseline.P50Days, baseline.P90Days}
	adj := []int{adjusted.P10Days, adjusted.P50Days, adjusted.P90Days}

	maxVal := max(slices.Max(base), slices.Max(adj))
	if maxVal == 0 {
		return ""
	}

	join := func(vs []int) string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = fmt.Sprintf("%d", v)
		}
		return strings.Join(out, ", ")
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"What-If: Baseline vs Adjusted\"\n")
	sb.WriteString("    x-axis [\"P10\", \"P50\", \"P90\"]\n")
	sb.WriteString(fmt.Sprintf("    y-axis \"Days to Hire\" 0 --> %d\n", int(math.Ceil(float64(maxVal)*1.2))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", join(base)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", join(adj)))
	sb.WriteString("```")
	return sb.String()
}

// GenerateBottleneckChart creates a Mermaid bar chart of queueing delay per stage.
func GenerateBottleneckChart(stages []capacity.StageDiagnostic) string {
	if len(stages) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0.0
	for _, d := range stages {
		labels = append(labels, fmt.Sprintf("\"%s\"", d.Stage))
		values = append(values, fmt.Sprintf("%.1f", d.QueueDelayDays))
		if d.QueueDelayDays > maxVal {
			maxVal = d.QueueDelayDays
		}
	}
	if maxVal == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Capacity Queueing Delay per Stage\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Delay (Days)\" 0 --> %d\n", int(math.Ceil(maxVal*1.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateOutcomePie creates a Mermaid pie of journeys that reached Hired versus dropped out.
func GenerateOutcomePie(res simulation.Result) string {
	if res.Debug.Iterations == 0 {
		return ""
	}
	hired := len(res.SimulatedDays)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Simulated Journey Outcomes\n")
	sb.WriteString(fmt.Sprintf("    \"Hired\" : %d\n", hired))
	sb.WriteString(fmt.Sprintf("    \"Dropped out\" : %d\n", res.Debug.Iterations-hired))
	sb.WriteString("```")
	return sb.String()
}
