package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/n3roxis/mmm"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// Tabulates the interception candidates of a meteor over a grid of flight times.

const (
	defaultScenario = "~~unset~~"
	dtFormat        = "2006-01-02 15:04:05"
)

var (
	scenario string
	verbose  bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML to tabulate the candidates from")
	flag.BoolVar(&verbose, "verbose", false, "log every Lambert solve")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	viper.AddConfigPath(".")
	viper.SetConfigName(strings.Replace(scenario, ".toml", "", 1))
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml not found", scenario)
	}
	conf, err := mmm.LoadConfigFromEnv()
	if err != nil {
		log.Printf("[conf] %s: using defaults", err)
		conf = mmm.DefaultConfig()
	}

	startDT := confReadJDEorTime("search.start")
	fromDays := viper.GetFloat64("search.from_days")
	untilDays := viper.GetFloat64("search.until_days")
	resolution := viper.GetFloat64("search.resolution_days")
	if resolution <= 0 || untilDays < fromDays {
		log.Fatalf("invalid flight time grid [%f, %f] by %f days", fromDays, untilDays, resolution)
	}
	mass := viper.GetFloat64("search.mass")
	prefix := viper.GetString("search.prefix")

	sys, err := conf.NewSystem()
	if err != nil {
		log.Fatalf("invalid bodies: %s", err)
	}
	var logger kitlog.Logger = kitlog.NewNopLogger()
	if verbose {
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	}
	search, err := mmm.NewSearch(sys, conf.NewIntegrator(), conf.Step, conf.Search.CentralBody, mmm.WithSearchLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	search.Lambert = conf.Lambert
	search.Thruster = conf.Thruster()
	search.MomentumFactor = conf.Search.MomentumFactor
	search.Verify = conf.Search.Verify
	search.VerifyStep = conf.Search.VerifyStep
	search.MaxMiss = conf.Commit.ProximityRadius

	// The site velocity is observed from its last two positions.
	site := mmm.Site{BodyID: viper.GetString("site.body"), Offset: confReadVector("site.offset")}
	var tracker mmm.VelocityTracker
	for _, epoch := range []float64{-conf.Step, 0} {
		pos, err := site.Position(sys, epoch)
		if err != nil {
			log.Fatal(err)
		}
		tracker.Record(epoch, pos)
	}
	platform, err := mmm.PlatformFromTracker(site.BodyID, &tracker)
	if err != nil {
		log.Fatal(err)
	}

	meteor := mmm.FreeBody{
		ID:       viper.GetString("meteor.id"),
		Mass:     viper.GetFloat64("meteor.mass"),
		Position: confReadVector("meteor.position"),
		Velocity: confReadVector("meteor.velocity"),
	}
	if rel := viper.GetString("meteor.relative_to"); rel != "" {
		center, err := sys.PositionAt(rel, 0)
		if err != nil {
			log.Fatalf("could not understand body `%s`: %s", rel, err)
		}
		centerVel, _ := sys.VelocityAt(rel, 0, conf.Step)
		meteor.Position = meteor.Position.Add(center)
		meteor.Velocity = meteor.Velocity.Add(centerVel)
	}

	var tofs []float64
	for days := fromDays; days <= untilDays; days += resolution {
		tofs = append(tofs, days*86400)
	}
	cands := search.Run(0, platform, meteor, tofs, mass)
	log.Printf("%d candidates out of %d flight times", len(cands), len(tofs))
	if best := mmm.SelectCandidate(cands, mmm.ByPropellant); best >= 0 {
		c := cands[best]
		log.Printf("best: tof=%.2f days Δv=%.3f km/s propellant=%.1f kg", c.FlightTime/86400, c.DepartureΔv.Norm(), c.Propellant)
	}

	f, err := os.Create(filepath.Join(conf.OutputDir, prefix+"-candidates.csv"))
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := mmm.WriteCandidatesCSV(f, startDT, cands); err != nil {
		log.Fatal(err)
	}
}

func confReadVector(key string) mmm.Vector3 {
	return mmm.Vec(viper.GetFloat64(key+".x"), viper.GetFloat64(key+".y"), viper.GetFloat64(key+".z"))
}

func confReadJDEorTime(key string) (dt time.Time) {
	jde := viper.GetFloat64(key)
	if jde == 0 {
		var perr error
		dt, perr = time.Parse(dtFormat, viper.GetString(key))
		if perr != nil {
			log.Fatalf("could not understand `%s`: %s", key, perr)
		}
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}
