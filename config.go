package mmm

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable naming the directory of conf.toml.
const ConfigEnv = "MMM_CONFIG"

// Config is the session configuration.
type Config struct {
	Step       float64 // live simulation step, seconds
	MaxSubStep float64 // seconds
	Gravity    Gravity
	Kepler     KeplerSolver
	Lambert    LambertOptions
	Predictor  PredictorConfig
	Search     SearchConfig
	Commit     CommitOptions
	OutputDir  string
	Bodies     []MassiveBody
}

// SearchConfig holds the trajectory search parameters.
type SearchConfig struct {
	CentralBody    string
	Thruster       string
	MomentumFactor float64
	Verify         bool
	VerifyStep     float64
}

type elementsConfig struct {
	SMA     float64 `mapstructure:"sma"`
	Ecc     float64 `mapstructure:"ecc"`
	Period  float64 `mapstructure:"period"`
	Inc     float64 `mapstructure:"inc"`
	RAAN    float64 `mapstructure:"raan"`
	ArgPeri float64 `mapstructure:"argperi"`
	Phase   float64 `mapstructure:"phase"`
}

func (e *elementsConfig) elements() *OrbitalElements {
	if e == nil {
		return nil
	}
	return &OrbitalElements{e.SMA, e.Ecc, e.Period, e.Inc, e.RAAN, e.ArgPeri, e.Phase}
}

type bodyConfig struct {
	ID       string          `mapstructure:"id"`
	Mass     float64         `mapstructure:"mass"`
	Radius   float64         `mapstructure:"radius"`
	Parent   string          `mapstructure:"parent"`
	Sidereal float64         `mapstructure:"sidereal"`
	Tilt     float64         `mapstructure:"tilt"`
	Spin     float64         `mapstructure:"spin"`
	Elements *elementsConfig `mapstructure:"elements"`
	Wobble   *elementsConfig `mapstructure:"wobble"`
}

func setConfigDefaults(v *viper.Viper) {
	pred := DefaultPredictorConfig()
	lambert := DefaultLambertOptions()
	commit := DefaultCommitOptions()
	v.SetDefault("physics.step", 60.0)
	v.SetDefault("physics.max_substep", 60.0)
	v.SetDefault("physics.g", G)
	v.SetDefault("physics.softening", DefaultGravity.Softening)
	v.SetDefault("kepler.iterations", DefaultKeplerSolver.Iterations)
	v.SetDefault("kepler.tolerance", DefaultKeplerSolver.Tolerance)
	v.SetDefault("kepler.max_eccentricity", DefaultKeplerSolver.MaxEccentricity)
	v.SetDefault("lambert.revolutions", lambert.Revolutions)
	v.SetDefault("lambert.retrograde", lambert.Retrograde)
	v.SetDefault("lambert.branch", lambert.Branch.String())
	v.SetDefault("lambert.max_iterations", lambert.MaxIterations)
	v.SetDefault("lambert.atol", lambert.AbsTol)
	v.SetDefault("lambert.rtol", lambert.RelTol)
	v.SetDefault("predictor.horizon", pred.Horizon)
	v.SetDefault("predictor.recompute_interval", pred.RecomputeInterval)
	v.SetDefault("predictor.heading_threshold", pred.HeadingThreshold)
	v.SetDefault("predictor.speed_threshold", pred.SpeedThreshold)
	v.SetDefault("predictor.min_ticks", pred.MinTicks)
	v.SetDefault("search.central_body", Sun.ID)
	v.SetDefault("search.thruster", "RL10")
	v.SetDefault("search.momentum_factor", 1.0)
	v.SetDefault("search.verify", false)
	v.SetDefault("search.verify_step", 10.0)
	v.SetDefault("intercept.proximity_radius", commit.ProximityRadius)
	v.SetDefault("intercept.grace", commit.Grace)
	v.SetDefault("output.directory", ".")
}

// DefaultConfig returns the configuration used without a conf.toml.
func DefaultConfig() Config {
	v := viper.New()
	setConfigDefaults(v)
	conf, err := configFromViper(v)
	if err != nil {
		panic(fmt.Errorf("invalid default configuration: %s", err))
	}
	return conf
}

// LoadConfig reads dir/conf.toml. Every missing key takes its default value.
func LoadConfig(dir string) (Config, error) {
	v := viper.New()
	setConfigDefaults(v)
	v.SetConfigName("conf")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s/conf.toml: %w", dir, err)
	}
	return configFromViper(v)
}

// LoadConfigFromEnv reads the conf.toml of the directory named by MMM_CONFIG.
func LoadConfigFromEnv() (Config, error) {
	dir := os.Getenv(ConfigEnv)
	if dir == "" {
		return Config{}, errors.New("environment variable `" + ConfigEnv + "` is missing or empty")
	}
	return LoadConfig(dir)
}

func configFromViper(v *viper.Viper) (Config, error) {
	var conf Config
	conf.Step = v.GetFloat64("physics.step")
	conf.MaxSubStep = v.GetFloat64("physics.max_substep")
	if conf.Step <= 0 || conf.MaxSubStep <= 0 {
		return conf, fmt.Errorf("%w: physics step %f and max sub-step %f must be positive", ErrInvalidInput, conf.Step, conf.MaxSubStep)
	}
	conf.Gravity = Gravity{G: v.GetFloat64("physics.g"), Softening: v.GetFloat64("physics.softening")}
	conf.Kepler = KeplerSolver{
		Iterations:      v.GetInt("kepler.iterations"),
		Tolerance:       v.GetFloat64("kepler.tolerance"),
		MaxEccentricity: v.GetFloat64("kepler.max_eccentricity"),
	}

	conf.Lambert = LambertOptions{
		Revolutions:   v.GetInt("lambert.revolutions"),
		Retrograde:    v.GetBool("lambert.retrograde"),
		MaxIterations: v.GetInt("lambert.max_iterations"),
		AbsTol:        v.GetFloat64("lambert.atol"),
		RelTol:        v.GetFloat64("lambert.rtol"),
	}
	switch branch := v.GetString("lambert.branch"); branch {
	case "left":
		conf.Lambert.Branch = BranchLeft
	case "right":
		conf.Lambert.Branch = BranchRight
	default:
		return conf, fmt.Errorf("%w: lambert branch `%s`", ErrInvalidInput, branch)
	}

	conf.Predictor = PredictorConfig{
		Step:              conf.Step,
		Horizon:           v.GetFloat64("predictor.horizon"),
		RecomputeInterval: v.GetFloat64("predictor.recompute_interval"),
		HeadingThreshold:  v.GetFloat64("predictor.heading_threshold"),
		SpeedThreshold:    v.GetFloat64("predictor.speed_threshold"),
		MinTicks:          v.GetInt("predictor.min_ticks"),
	}
	if err := conf.Predictor.Validate(); err != nil {
		return conf, err
	}

	conf.Search = SearchConfig{
		CentralBody:    v.GetString("search.central_body"),
		Thruster:       v.GetString("search.thruster"),
		MomentumFactor: v.GetFloat64("search.momentum_factor"),
		Verify:         v.GetBool("search.verify"),
		VerifyStep:     v.GetFloat64("search.verify_step"),
	}
	if _, err := ThrusterFromString(conf.Search.Thruster); err != nil {
		return conf, err
	}
	conf.Commit = DefaultCommitOptions()
	conf.Commit.ProximityRadius = v.GetFloat64("intercept.proximity_radius")
	conf.Commit.Grace = v.GetFloat64("intercept.grace")
	conf.OutputDir = v.GetString("output.directory")

	if !v.IsSet("bodies") {
		conf.Bodies = DefaultBodies()
		return conf, nil
	}
	var bodies []bodyConfig
	if err := v.UnmarshalKey("bodies", &bodies); err != nil {
		return conf, fmt.Errorf("bodies table: %w", err)
	}
	for _, b := range bodies {
		conf.Bodies = append(conf.Bodies, MassiveBody{
			ID: b.ID, Mass: b.Mass, Radius: b.Radius, Parent: b.Parent,
			Elements: b.Elements.elements(), Wobble: b.Wobble.elements(),
			SiderealPeriod: b.Sidereal, AxialTilt: b.Tilt, SpinPhase: b.Spin,
		})
	}
	return conf, nil
}

// NewSystem returns the system of the configured bodies.
func (c Config) NewSystem() (*System, error) {
	return NewSystem(c.Bodies, c.Kepler)
}

// NewIntegrator returns the configured integrator.
func (c Config) NewIntegrator() Integrator {
	return NewIntegrator(c.Gravity, c.MaxSubStep)
}

// Thruster returns the configured thruster.
func (c Config) Thruster() Thruster {
	t, err := ThrusterFromString(c.Search.Thruster)
	if err != nil {
		// Already validated when loading.
		panic(err)
	}
	return t
}
