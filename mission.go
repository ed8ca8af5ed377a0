package mmm

import (
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// Site is a launch site fixed relative to the center of a body.
type Site struct {
	BodyID string
	Offset Vector3 // km, inertial
}

// Position returns the inertial position of the site at the epoch.
func (s Site) Position(sys *System, epoch float64) (Vector3, error) {
	center, err := sys.PositionAt(s.BodyID, epoch)
	if err != nil {
		return Vector3{}, err
	}
	return center.Add(s.Offset), nil
}

/* Drives the session tick by tick. */

// Mission owns a meteor falling through the system, the interceptors launched at
// it, and the prediction of its impact on the target body. It is the single
// writer of the meteor state.
type Mission struct {
	Meteor       FreeBody
	Epoch        float64   // current epoch, seconds since StartDT
	StartDT      time.Time // reference date of epoch zero
	TargetID     string
	system       *System
	integrator   Integrator
	step         float64
	predictor    *PathPredictor
	search       *Search
	commit       CommitOptions
	site         *Site
	tracker      VelocityTracker
	interceptors []*Interceptor
	last         Prediction
	logger       kitlog.Logger
	metrics      *Metrics
	done         bool
}

// MissionOption configures a Mission.
type MissionOption func(*Mission)

// WithMissionLogger sets the logger of the mission and of its components.
func WithMissionLogger(logger kitlog.Logger) MissionOption {
	return func(m *Mission) {
		m.logger = logger
	}
}

// WithMissionMetrics sets the metrics of the mission and of its components.
func WithMissionMetrics(metrics *Metrics) MissionOption {
	return func(m *Mission) {
		m.metrics = metrics
	}
}

// WithLaunchSite sets the site from which interceptors are launched.
func WithLaunchSite(site Site) MissionOption {
	return func(m *Mission) {
		m.site = &site
	}
}

// NewMission returns a new mission of the meteor toward the body targetID,
// starting at the epoch.
func NewMission(conf Config, meteor FreeBody, targetID string, epoch float64, start time.Time, store ImpactStore, opts ...MissionOption) (*Mission, error) {
	sys, err := conf.NewSystem()
	if err != nil {
		return nil, err
	}
	m := &Mission{
		Meteor: meteor, Epoch: epoch, StartDT: start.UTC(), TargetID: targetID,
		system: sys, integrator: conf.NewIntegrator(), step: conf.Step, commit: conf.Commit,
		logger: kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = kitlog.With(m.logger, "mission", meteor.ID)
	m.commit.Logger, m.commit.Metrics = m.logger, m.metrics

	// The predicted path is integrated at the live step.
	conf.Predictor.Step = conf.Step
	m.predictor, err = NewPathPredictor(conf.Predictor, sys, m.integrator, targetID, store,
		WithPredictorLogger(m.logger), WithPredictorMetrics(m.metrics))
	if err != nil {
		return nil, err
	}
	m.search, err = NewSearch(sys, m.integrator, conf.Step, conf.Search.CentralBody,
		WithSearchLogger(m.logger), WithSearchMetrics(m.metrics))
	if err != nil {
		return nil, err
	}
	m.search.Lambert = conf.Lambert
	m.search.Thruster = conf.Thruster()
	m.search.MomentumFactor = conf.Search.MomentumFactor
	m.search.Verify = conf.Search.Verify
	m.search.VerifyStep = conf.Search.VerifyStep
	m.search.MaxMiss = m.commit.ProximityRadius
	if m.site != nil {
		if err := m.recordSite(epoch); err != nil {
			return nil, err
		}
	}
	m.last = m.predictor.Update(epoch, meteor)
	return m, nil
}

// System returns the system of the mission.
func (m *Mission) System() *System {
	return m.system
}

// Predictor returns the path predictor of the meteor.
func (m *Mission) Predictor() *PathPredictor {
	return m.predictor
}

// Interceptors returns the committed interceptors.
func (m *Mission) Interceptors() []*Interceptor {
	return m.interceptors
}

// Done returns whether the meteor hit the target body.
func (m *Mission) Done() bool {
	return m.done
}

// Date returns the date of the current epoch.
func (m *Mission) Date() time.Time {
	return EpochTime(m.StartDT, m.Epoch)
}

// LogStatus logs the status of the mission.
func (m *Mission) LogStatus() {
	impact := "none"
	if m.last.Impact != nil {
		impact = m.last.Impact.String()
	}
	m.logger.Log("level", "info", "subsys", "astro", "date", m.Date(), "r", m.Meteor.Position, "v(km/s)", m.Meteor.Velocity.Norm(), "impact", impact)
}

func (m *Mission) recordSite(epoch float64) error {
	pos, err := m.site.Position(m.system, epoch)
	if err != nil {
		return err
	}
	m.tracker.Record(epoch, pos)
	return nil
}

// Tick advances the mission to the epoch.
func (m *Mission) Tick(epoch float64) (Prediction, error) {
	if m.done {
		return m.last, nil
	}
	dt := epoch - m.Epoch
	if dt <= 0 {
		return m.last, fmt.Errorf("%w: epoch %f not after %f", ErrInvalidInput, epoch, m.Epoch)
	}
	next := m.integrator.Step(m.Meteor, m.Epoch, dt, m.system)
	for _, in := range m.interceptors {
		var status InterceptStatus
		next, status = in.Advance(m.Epoch, dt, m.integrator, m.Meteor, next)
		if status == Hit {
			m.predictor.Flag()
		}
	}
	m.Meteor, m.Epoch = next, epoch
	if m.site != nil {
		if err := m.recordSite(epoch); err != nil {
			return m.last, err
		}
	}
	m.last = m.predictor.Update(epoch, m.Meteor)
	if m.last.Final {
		m.done = true
		m.logger.Log("level", "notice", "subsys", "astro", "status", "finished", "date", m.Date(), "impact", m.last.Impact)
	}
	return m.last, nil
}

// PropagateUntil ticks at the configured step until the epoch or the impact.
func (m *Mission) PropagateUntil(epoch float64) (Prediction, error) {
	m.LogStatus()
	for !m.done && m.Epoch < epoch {
		next := math.Min(m.Epoch+m.step, epoch)
		if _, err := m.Tick(next); err != nil {
			return m.last, err
		}
	}
	m.LogStatus()
	return m.last, nil
}

// ApplyImpulse changes the meteor velocity by dv, e.g. for an external push.
func (m *Mission) ApplyImpulse(dv Vector3) {
	m.Meteor = m.Meteor.ApplyImpulse(dv)
	m.predictor.Flag()
}

// Platform returns the state of the launch site.
func (m *Mission) Platform() (Platform, error) {
	if m.site == nil {
		return Platform{}, fmt.Errorf("%w: no launch site", ErrInvalidInput)
	}
	return PlatformFromTracker(m.site.BodyID, &m.tracker)
}

// SearchTrajectories returns the interception candidates from the launch site to the
// meteor for each flight time.
func (m *Mission) SearchTrajectories(flightTimes []float64, impactorMass float64) ([]TrajectoryCandidate, error) {
	platform, err := m.Platform()
	if err != nil {
		return nil, err
	}
	return m.search.Run(m.Epoch, platform, m.Meteor, flightTimes, impactorMass), nil
}

// Commit launches an interceptor on the candidate now.
func (m *Mission) Commit(c TrajectoryCandidate, impactorMass float64, onImpact func(InterceptEvent)) (*Interceptor, error) {
	if c.DepartureEpoch != m.Epoch {
		return nil, fmt.Errorf("%w: candidate departs at %f, mission is at %f", ErrInvalidInput, c.DepartureEpoch, m.Epoch)
	}
	opts := m.commit
	opts.ID = fmt.Sprintf("interceptor-%d", len(m.interceptors)+1)
	opts.OnImpact = onImpact
	in, err := CommitTrajectory(m.system, c, impactorMass, m.Epoch, m.Meteor.ID, opts)
	if err != nil {
		return nil, err
	}
	m.interceptors = append(m.interceptors, in)
	return in, nil
}
