package mmm

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
)

// PredictorConfig parametrizes the path prediction.
type PredictorConfig struct {
	Step              float64 // integration step, seconds (the live step)
	Horizon           float64 // seconds
	RecomputeInterval float64 // seconds of simulated time between forced recomputes
	HeadingThreshold  float64 // degrees
	SpeedThreshold    float64 // fraction of the predicted speed
	MinTicks          int     // minimum updates between two recomputes
}

// DefaultPredictorConfig returns a one minute step over thirty days.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		Step:              60,
		Horizon:           30 * secondsPerDay,
		RecomputeInterval: secondsPerDay,
		HeadingThreshold:  0.5,
		SpeedThreshold:    0.01,
		MinTicks:          5,
	}
}

// Validate returns an error if the configuration cannot be used.
func (c PredictorConfig) Validate() error {
	if c.Step <= 0 || c.Horizon < c.Step {
		return fmt.Errorf("%w: step=%f horizon=%f", ErrInvalidInput, c.Step, c.Horizon)
	}
	if c.RecomputeInterval <= 0 || c.HeadingThreshold <= 0 || c.SpeedThreshold <= 0 || c.MinTicks < 0 {
		return fmt.Errorf("%w: recompute thresholds %+v", ErrInvalidInput, c)
	}
	return nil
}

// PathSample is one predicted state.
type PathSample struct {
	Elapsed  float64 // seconds since the recompute
	Epoch    float64
	Position Vector3
	Velocity Vector3
}

// Prediction is the result of an update of the predictor.
type Prediction struct {
	Recomputed bool
	Reason     string
	Impact     *ImpactSolution // nil when no impact is predicted
	Final      bool            // the impact epoch was reached
}

// PathPredictor forward simulates a free body to find where and when it hits a
// target body. Predicted impacts are only finalized once the simulation reaches
// their epoch.
type PathPredictor struct {
	cfg        PredictorConfig
	system     *System
	integrator Integrator
	target     MassiveBody
	store      ImpactStore
	logger     kitlog.Logger
	metrics    *Metrics

	samples   []PathSample
	start     float64 // epoch of the last recompute
	ticks     int     // updates since the last recompute
	flagged   bool
	base      ImpactSolution // solution of the last recompute
	current   ImpactSolution // base refreshed for the live drift
	hasImpact bool
	final     bool
}

// PredictorOption configures a PathPredictor.
type PredictorOption func(*PathPredictor)

// WithPredictorLogger sets the logger.
func WithPredictorLogger(logger kitlog.Logger) PredictorOption {
	return func(p *PathPredictor) {
		p.logger = logger
	}
}

// WithPredictorMetrics sets the metrics.
func WithPredictorMetrics(m *Metrics) PredictorOption {
	return func(p *PathPredictor) {
		p.metrics = m
	}
}

// NewPathPredictor returns a predictor of impacts on the body targetID. The store
// may be nil.
func NewPathPredictor(cfg PredictorConfig, sys *System, integrator Integrator, targetID string, store ImpactStore, opts ...PredictorOption) (*PathPredictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target, ok := sys.Body(targetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBody, targetID)
	}
	if target.Radius <= 0 {
		return nil, fmt.Errorf("%w: %s has no radius", ErrInvalidInput, targetID)
	}
	if store == nil {
		store = StoreFunc(func(ImpactSolution) {})
	}
	p := &PathPredictor{cfg: cfg, system: sys, integrator: integrator, target: target, store: store, logger: kitlog.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Flag marks a discontinuity of the free body (e.g. an impulse): the next allowed
// update recomputes the path.
func (p *PathPredictor) Flag() {
	p.flagged = true
}

// Samples returns a copy of the predicted path.
func (p *PathPredictor) Samples() []PathSample {
	out := make([]PathSample, len(p.samples))
	copy(out, p.samples)
	return out
}

// Update processes the live state fb at the epoch.
func (p *PathPredictor) Update(epoch float64, fb FreeBody) Prediction {
	if p.final {
		return p.prediction(false, "")
	}
	p.ticks++
	reason := p.recomputeReason(epoch, fb)
	if reason != "" && (reason == "initial" || p.ticks >= p.cfg.MinTicks) {
		p.recompute(epoch, fb)
		p.metrics.RecordRecompute(reason)
		p.logger.Log("level", "info", "subsys", "predict", "reason", reason, "epoch", epoch, "samples", len(p.samples), "impact", p.hasImpact)
		return p.finalize(epoch, true, reason)
	}
	if p.hasImpact {
		if predicted, ok := p.predictedAt(epoch - p.start); ok {
			refreshed := Refresh(p.base, fb.Position.Sub(predicted.Position))
			if refreshed.Valid != p.current.Valid {
				p.store.Put(refreshed)
				p.logger.Log("level", "notice", "subsys", "predict", "valid", refreshed.Valid, "epoch", epoch)
			}
			p.current = refreshed
		}
	}
	return p.finalize(epoch, false, "")
}

func (p *PathPredictor) finalize(epoch float64, recomputed bool, reason string) Prediction {
	if p.hasImpact && p.current.Valid && epoch >= p.current.Epoch {
		p.final = true
		p.current.Final = true
		p.store.Put(p.current)
		p.metrics.RecordImpact("surface")
		p.logger.Log("level", "critical", "subsys", "predict", "impact", p.current)
	}
	return p.prediction(recomputed, reason)
}

func (p *PathPredictor) prediction(recomputed bool, reason string) Prediction {
	pred := Prediction{Recomputed: recomputed, Reason: reason, Final: p.final}
	if p.hasImpact {
		sol := p.current
		pred.Impact = &sol
	}
	return pred
}

// recomputeReason returns why the path must be recomputed, or an empty string.
func (p *PathPredictor) recomputeReason(epoch float64, fb FreeBody) string {
	if len(p.samples) == 0 {
		return "initial"
	}
	if p.flagged {
		return "discontinuity"
	}
	elapsed := epoch - p.start
	if elapsed >= p.cfg.RecomputeInterval {
		return "interval"
	}
	predicted, ok := p.predictedAt(elapsed)
	if !ok {
		if p.hasImpact {
			// The path ends at the predicted impact.
			return ""
		}
		return "horizon"
	}
	ps, ls := predicted.Velocity.Norm(), fb.Velocity.Norm()
	if ps > 0 && math.Abs(ls-ps)/ps > p.cfg.SpeedThreshold {
		return "speed"
	}
	if ps > 0 && ls > 0 {
		cosθ := clamp(predicted.Velocity.Dot(fb.Velocity)/(ps*ls), -1, 1)
		if Rad2deg(math.Acos(cosθ)) > p.cfg.HeadingThreshold {
			return "heading"
		}
	}
	return ""
}

// predictedAt interpolates the predicted path at the elapsed time.
func (p *PathPredictor) predictedAt(elapsed float64) (PathSample, bool) {
	n := len(p.samples)
	if n == 0 || elapsed < 0 || elapsed > p.samples[n-1].Elapsed {
		return PathSample{}, false
	}
	i := int(elapsed / p.cfg.Step)
	if i >= n-1 {
		return p.samples[n-1], true
	}
	a, b := p.samples[i], p.samples[i+1]
	s := 0.0
	if span := b.Elapsed - a.Elapsed; span > 0 {
		s = (elapsed - a.Elapsed) / span
	}
	return PathSample{
		Elapsed:  elapsed,
		Epoch:    a.Epoch + s*(b.Epoch-a.Epoch),
		Position: a.Position.Lerp(b.Position, s),
		Velocity: a.Velocity.Lerp(b.Velocity, s),
	}, true
}

// recompute integrates the path from the live state up to the horizon or the
// first swept hit of the target body. The hit is held pending.
func (p *PathPredictor) recompute(epoch float64, fb FreeBody) {
	p.start, p.ticks, p.flagged = epoch, 0, false
	p.samples = p.samples[:0]
	p.samples = append(p.samples, PathSample{Elapsed: 0, Epoch: epoch, Position: fb.Position, Velocity: fb.Velocity})

	h := p.cfg.Step
	cur := fb
	c0, _ := p.system.PositionAt(p.target.ID, epoch)
	hadImpact, wasValid := p.hasImpact, p.current.Valid
	p.hasImpact = false
	steps := int(math.Ceil(p.cfg.Horizon/h - 1e-9))
	for k := 0; k < steps; k++ {
		t := epoch + float64(k)*h
		next := p.integrator.Step(cur, t, h, p.system)
		c1, _ := p.system.PositionAt(p.target.ID, t+h)
		if s, hit := sweep(cur.Position, next.Position, c0, c1, p.target.Radius); hit {
			point := cur.Position.Lerp(next.Position, s)
			rel := point.Sub(c0.Lerp(c1, s))
			relVel := next.Position.Sub(cur.Position).Sub(c1.Sub(c0)).Scale(1 / h)
			p.samples = append(p.samples, PathSample{
				Elapsed:  (float64(k) + s) * h,
				Epoch:    t + s*h,
				Position: point,
				Velocity: cur.Velocity.Lerp(next.Velocity, s),
			})
			p.base = ResolveImpact(p.target, rel, relVel, fb.Mass, t+s*h)
			p.current = p.base
			p.hasImpact = true
			p.store.Put(p.current)
			return
		}
		p.samples = append(p.samples, PathSample{Elapsed: float64(k+1) * h, Epoch: t + h, Position: next.Position, Velocity: next.Velocity})
		cur, c0 = next, c1
	}
	if hadImpact && wasValid {
		// The previously reported impact no longer happens.
		p.current.Valid = false
		p.store.Put(p.current)
	}
}
