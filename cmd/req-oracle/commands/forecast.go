package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"req-oracle/internal/oracle"
	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var forecastFlags struct {
	reqID          string
	all            bool
	start          string
	iterations     int
	ignoreCapacity bool
	format         string
	rateDeltas     map[string]string
	durations      map[string]string
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast hire dates for one requisition or every open requisition",
	Example: `  req-oracle forecast --req REQ-42
  req-oracle forecast --req REQ-42 --rate SCREEN=0.1 --duration ONSITE=0.5
  req-oracle forecast --all --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := forecastFlags
		if f.reqID == "" && !f.all {
			return fmt.Errorf("either --req or --all is required")
		}
		if f.format != "table" && f.format != "json" {
			return fmt.Errorf("unsupported format %q (use table or json)", f.format)
		}
		req, err := forecastRequest(f.start, f.iterations, f.ignoreCapacity, f.rateDeltas, f.durations)
		if err != nil {
			return err
		}

		svc, store, err := newService(cfg)
		if err != nil {
			return err
		}

		var results []*oracle.Forecast
		if f.all {
			n := 0
			for _, r := range svc.Requisitions() {
				if r.Open {
					n++
				}
			}
			bar := progressbar.Default(int64(n), "Forecasting")
			results, err = svc.ForecastAll(cmd.Context(), req, func() { _ = bar.Add(1) })
			_ = bar.Finish()
		} else {
			req.ReqID = f.reqID
			var one *oracle.Forecast
			one, err = svc.Forecast(cmd.Context(), req)
			results = []*oracle.Forecast{one}
		}
		if err != nil {
			return err
		}

		if err := store.Save(cfg.DataPath); err != nil {
			log.Error().Err(err).Msg("Failed to save forecast ledger")
		}

		if f.format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		return writeForecastTable(cmd.OutOrStdout(), results)
	},
}

func init() {
	fl := forecastCmd.Flags()
	fl.StringVar(&forecastFlags.reqID, "req", "", "requisition id to forecast")
	fl.BoolVar(&forecastFlags.all, "all", false, "forecast every open requisition")
	fl.StringVar(&forecastFlags.start, "start", "", "forecast start date (YYYY-MM-DD), default today")
	fl.IntVar(&forecastFlags.iterations, "iterations", 0, "Monte Carlo iterations (default from ORACLE_ITERATIONS)")
	fl.BoolVar(&forecastFlags.ignoreCapacity, "ignore-capacity", false, "skip the queueing penalty")
	fl.StringVar(&forecastFlags.format, "format", "table", "output format: table or json")
	fl.StringToStringVar(&forecastFlags.rateDeltas, "rate", nil, "pass-rate delta per stage, e.g. SCREEN=0.1")
	fl.StringToStringVar(&forecastFlags.durations, "duration", nil, "dwell-time multiplier per stage, e.g. ONSITE=0.5")
}

func forecastRequest(start string, iterations int, ignoreCapacity bool, rates, durations map[string]string) (oracle.Request, error) {
	req := oracle.Request{Iterations: iterations, IgnoreCapacity: ignoreCapacity}
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return req, fmt.Errorf("invalid --start: %w", err)
		}
		req.StartDate = t
	}

	req.Levers = simulation.Levers{
		RateDeltas:          map[pipeline.Stage]float64{},
		DurationMultipliers: map[pipeline.Stage]float64{},
	}
	for raw, v := range rates {
		s, f, err := parseStageValue("--rate", raw, v)
		if err != nil {
			return req, err
		}
		req.Levers.RateDeltas[s] = f
	}
	for raw, v := range durations {
		s, f, err := parseStageValue("--duration", raw, v)
		if err != nil {
			return req, err
		}
		if f <= 0 {
			return req, fmt.Errorf("--duration %s must be > 0", s)
		}
		req.Levers.DurationMultipliers[s] = f
	}
	return req, nil
}

func parseStageValue(flag, raw, value string) (pipeline.Stage, float64, error) {
	s, ok := pipeline.Parse(raw)
	if !ok || !s.IsActive() {
		return "", 0, fmt.Errorf("%s: %q is not a simulated stage", flag, raw)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%s %s: %w", flag, s, err)
	}
	return s, f, nil
}

func writeForecastTable(out io.Writer, results []*oracle.Forecast) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REQ\tACTIVE\tP10\tP50\tP90\tCONFIDENCE\tQUEUE DAYS\tWHAT-IF P50")
	for _, f := range results {
		queue := "-"
		if f.Capacity != nil {
			queue = strconv.FormatFloat(f.Capacity.TotalQueueDelayDays, 'f', 1, 64)
		}
		whatIf := "-"
		if f.WhatIf != nil && f.Delta != nil {
			whatIf = fmt.Sprintf("%s (%+dd)", f.WhatIf.P50Date.Format("2006-01-02"), f.Delta.P50Days)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ReqID, f.ActiveCandidates,
			f.Baseline.P10Date.Format("2006-01-02"),
			f.Baseline.P50Date.Format("2006-01-02"),
			f.Baseline.P90Date.Format("2006-01-02"),
			f.Baseline.Confidence, queue, whatIf)
		for _, w := range f.Baseline.Warnings {
			fmt.Fprintf(os.Stderr, "warning (%s): %s\n", f.ReqID, w)
		}
	}
	return tw.Flush()
}
