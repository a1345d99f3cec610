package oracle

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"req-oracle/internal/capacity"
	"req-oracle/internal/ledger"
	"req-oracle/internal/metrics"
	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownRequisition is returned for a requisition id the workload does not contain.
var ErrUnknownRequisition = errors.New("unknown requisition")

// DefaultWorkers bounds batch forecasting concurrency.
const DefaultWorkers = 4

// Options configure a Service. Zero values take defaults.
type Options struct {
	Iterations int
	Workers    int
	Engine     simulation.Options
	Capacity   capacity.ModelOptions
	Cache      *simulation.Cache
	Metrics    *metrics.Collector
	Ledger     *ledger.Store
	Now        func() time.Time
}

// Service orchestrates demand aggregation, the capacity penalty and pipeline simulation.
type Service struct {
	mu       sync.RWMutex
	workload Workload

	engine     *simulation.Engine
	model      *capacity.Model
	cache      *simulation.Cache
	metrics    *metrics.Collector
	ledger     *ledger.Store
	iterations int
	workers    int
	now        func() time.Time
}

// NewService creates a Service over w.
func NewService(w Workload, opts Options) *Service {
	if opts.Iterations <= 0 {
		opts.Iterations = simulation.DefaultIterations
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Engine.MaxIterations <= 0 {
		opts.Engine = simulation.DefaultOptions()
	}
	return &Service{
		workload:   w,
		engine:     simulation.NewEngine(opts.Engine),
		model:      capacity.NewModel(opts.Capacity),
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		ledger:     opts.Ledger,
		iterations: opts.Iterations,
		workers:    opts.Workers,
		now:        opts.Now,
	}
}

// SetWorkload swaps the workload and drops cached results built from the old one.
func (s *Service) SetWorkload(w Workload) {
	s.mu.Lock()
	s.workload = w
	s.mu.Unlock()
	s.cache.Purge()
}

func (s *Service) current() Workload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workload
}

// Requisitions lists every requisition with its active pipeline by stage.
func (s *Service) Requisitions() []RequisitionSummary {
	w := s.current()
	byReq := make(map[string]map[pipeline.Stage]int)
	for _, c := range w.AllCandidates() {
		st, ok := c.ActiveStage()
		if !ok {
			continue
		}
		if byReq[c.ReqID] == nil {
			byReq[c.ReqID] = make(map[pipeline.Stage]int)
		}
		byReq[c.ReqID][st]++
	}

	out := make([]RequisitionSummary, 0, len(w.AllRequisitions()))
	for _, r := range w.AllRequisitions() {
		sum := RequisitionSummary{Requisition: r, Open: r.IsOpen(), ByStage: map[pipeline.Stage]int{}}
		for st, n := range byReq[r.ID] {
			sum.ByStage[st] = n
			sum.ActiveCandidates += n
		}
		out = append(out, sum)
	}
	return out
}

// Demand aggregates the global demand seen by a requisition's recruiter and hiring manager.
func (s *Service) Demand(reqID string) (capacity.GlobalDemand, error) {
	w := s.current()
	req, ok := w.Requisition(reqID)
	if !ok {
		return capacity.GlobalDemand{}, fmt.Errorf("%w: %s", ErrUnknownRequisition, reqID)
	}
	return demandFor(w, req), nil
}

// Capacity explains the queueing penalty for a requisition, comparing single-requisition
// demand with whole-workload demand.
func (s *Service) Capacity(reqID string) (*CapacityReport, error) {
	w := s.current()
	req, ok := w.Requisition(reqID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequisition, reqID)
	}
	params := w.ParametersFor(reqID)
	gd := demandFor(w, req)
	profile := capacity.ResolveProfile(req.RecruiterID, req.HMID, w.CapacityProfiles())

	return &CapacityReport{
		ReqID:     reqID,
		Profile:   profile,
		Demand:    gd,
		SingleReq: s.model.ApplyPenalty(params.Durations, gd.SelectedReqDemand, profile),
		Global:    s.model.ApplyPenaltyV11(params.Durations, gd, profile),
	}, nil
}

// Forecast runs the baseline forecast and, when levers are set, the what-if forecast. Both
// runs share one seed so their difference reflects only the lever change.
func (s *Service) Forecast(ctx context.Context, r Request) (*Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.metrics.TrackForecast()()

	w := s.current()
	req, ok := w.Requisition(r.ReqID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequisition, r.ReqID)
	}

	start := r.StartDate
	if start.IsZero() {
		start = s.now()
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	iterations := r.Iterations
	if iterations <= 0 {
		iterations = s.iterations
	}

	var candidates []simulation.PipelineCandidate
	var excluded []string
	active := 0
	for _, c := range w.CandidatesFor(req.ID) {
		st, ok := pipeline.Parse(c.Stage)
		if !ok {
			excluded = append(excluded, c.Stage)
		} else if st.IsActive() {
			active++
		}
		candidates = append(candidates, simulation.PipelineCandidate{ID: c.ID, Stage: c.Stage})
	}

	hash := simulation.PipelineHash(candidates)
	seed := simulation.ComputeStableSeed(req.ID, hash, iterations)

	base := w.ParametersFor(req.ID)
	adjustment := "capacity:off"
	var penalty *capacity.PenaltyResultV11
	if !r.IgnoreCapacity {
		gd := demandFor(w, req)
		profile := capacity.ResolveProfile(req.RecruiterID, req.HMID, w.CapacityProfiles())
		p := s.model.ApplyPenaltyV11(base.Durations, gd, profile)
		for _, d := range p.TopBottlenecks {
			s.metrics.RecordQueueDelay(string(d.Stage), d.QueueDelayDays)
		}
		base = capacity.CreateAdjustedParams(base, p.PenaltyResult)
		adjustment = penaltyHash(p.PenaltyResult)
		penalty = &p
	}

	f := &Forecast{
		RunID:            uuid.NewString(),
		ReqID:            req.ID,
		StartDate:        start,
		Seed:             seed,
		PipelineHash:     hash,
		ActiveCandidates: active,
		ExcludedStages:   excluded,
		Capacity:         penalty,
	}

	baseKey := simulation.CacheKey{ReqID: req.ID, PipelineHash: hash, Seed: seed, AdjustmentHash: adjustment + "|levers:none"}
	whatIfKey := baseKey
	whatIfKey.AdjustmentHash = adjustment + "|levers:" + r.Levers.Hash()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, hit, err := s.run(gctx, "baseline", baseKey, candidates, base, start, seed, iterations)
		f.Baseline, f.BaselineFromCache = res, hit
		return err
	})
	if !r.Levers.IsZero() {
		g.Go(func() error {
			adjusted := simulation.ApplyLevers(base, r.Levers)
			res, hit, err := s.run(gctx, "what_if", whatIfKey, candidates, adjusted, start, seed, iterations)
			if err == nil {
				f.WhatIf, f.WhatIfFromCache = &res, hit
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if f.WhatIf != nil {
		f.Delta = &Delta{
			P10Days:     f.WhatIf.P10Days - f.Baseline.P10Days,
			P50Days:     f.WhatIf.P50Days - f.Baseline.P50Days,
			P90Days:     f.WhatIf.P90Days - f.Baseline.P90Days,
			SuccessRate: f.WhatIf.SuccessRate - f.Baseline.SuccessRate,
		}
	}

	s.record(f, baseKey.AdjustmentHash, whatIfKey.AdjustmentHash)

	log.Info().
		Str("runId", f.RunID).
		Str("req", f.ReqID).
		Int("p50Days", f.Baseline.P50Days).
		Str("confidence", string(f.Baseline.Confidence)).
		Bool("whatIf", f.WhatIf != nil).
		Msg("Forecast computed")
	return f, nil
}

// ForecastAll forecasts every open requisition on a bounded worker pool. progress, if non-nil,
// is called once per finished requisition.
func (s *Service) ForecastAll(ctx context.Context, r Request, progress func()) ([]*Forecast, error) {
	reqs := s.current().OpenRequisitions()
	out := make([]*Forecast, len(reqs))

	var progressMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, req := range reqs {
		g.Go(func() error {
			one := r
			one.ReqID = req.ID
			f, err := s.Forecast(gctx, one)
			if err != nil {
				return fmt.Errorf("forecast %s: %w", req.ID, err)
			}
			out[i] = f
			if progress != nil {
				progressMu.Lock()
				progress()
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) run(ctx context.Context, kind string, key simulation.CacheKey, candidates []simulation.PipelineCandidate, params simulation.Parameters, start time.Time, seed string, iterations int) (simulation.Result, bool, error) {
	if res, ok := s.cache.Get(key); ok {
		s.metrics.RecordCacheLookup(true)
		return res.Rebase(start), true, nil
	}
	s.metrics.RecordCacheLookup(false)

	if err := ctx.Err(); err != nil {
		return simulation.Result{}, false, err
	}

	began := time.Now()
	res := s.engine.RunPipeline(candidates, params, start, seed, iterations)
	s.metrics.RecordSimulation(kind, res.Debug.Iterations, time.Since(began), len(res.SimulatedDays) == 0)

	s.cache.Add(key, res)
	return res, false, nil
}

func (s *Service) record(f *Forecast, baseAdjustment, whatIfAdjustment string) {
	if s.ledger == nil {
		return
	}
	issued := s.now()
	delay := 0.0
	if f.Capacity != nil {
		delay = f.Capacity.TotalQueueDelayDays
	}

	base := ledger.NewRecord(f.RunID, f.ReqID, ledger.Baseline, f.StartDate, f.Baseline, issued)
	base.AdjustmentHash = baseAdjustment
	recs := []ledger.Record{base}
	if f.WhatIf != nil {
		wi := ledger.NewRecord(f.RunID, f.ReqID, ledger.WhatIf, f.StartDate, *f.WhatIf, issued)
		wi.AdjustmentHash = whatIfAdjustment
		recs = append(recs, wi)
	}
	for i := range recs {
		recs[i].PipelineHash = f.PipelineHash
		recs[i].QueueDelayDays = delay
	}
	s.ledger.Append(recs...)
}

func demandFor(w Workload, req pipeline.Requisition) capacity.GlobalDemand {
	return capacity.ComputeGlobalDemand(capacity.GlobalDemandInput{
		SelectedReqID: req.ID,
		RecruiterID:   req.RecruiterID,
		HMID:          req.HMID,
		Requisitions:  w.AllRequisitions(),
		Candidates:    w.AllCandidates(),
	})
}

// penaltyHash fingerprints the stage delays applied to the parameters.
func penaltyHash(p capacity.PenaltyResult) string {
	if len(p.TopBottlenecks) == 0 {
		return "capacity:none"
	}
	parts := make([]string, 0, len(p.TopBottlenecks))
	for _, d := range p.TopBottlenecks {
		parts = append(parts, fmt.Sprintf("%s=%g", d.Stage, d.QueueDelayDays))
	}
	sort.Strings(parts)

	h := fnv.New64a()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{';'})
	}
	return fmt.Sprintf("capacity:%x", h.Sum64())
}
