package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/n3roxis/mmm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// This code reads the scenario, optionally launches an interceptor, and propagates
// the meteor until it hits or the mission ends.

const (
	defaultScenario = "~~unset~~"
	dateFormat      = "2006-01-02 15:04:05"
)

var (
	scenario    string
	metricsAddr string
	verbose     bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "mission scenario TOML file")
	flag.StringVar(&metricsAddr, "metrics", "", "address to serve the Prometheus metrics on (e.g. :9100)")
	flag.BoolVar(&verbose, "verbose", false, "really verbose (esp. for configuration)")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}

	conf, err := mmm.LoadConfigFromEnv()
	if err != nil {
		log.Printf("[conf] %s: using defaults", err)
		conf = mmm.DefaultConfig()
	}
	if viper.IsSet("mission.step") {
		conf.Step = viper.GetFloat64("mission.step")
	}
	if verbose {
		log.Printf("[conf] step: %.1fs, predictor: %+v", conf.Step, conf.Predictor)
	}

	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	reg := prometheus.NewRegistry()
	metrics := mmm.NewMetrics(reg)
	if metricsAddr != "" {
		go func() {
			log.Fatal(http.ListenAndServe(metricsAddr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}()
	}

	// Read mission parameters
	startDT := confReadJDEorTime("mission.start")
	duration := viper.GetFloat64("mission.days") * 86400
	target := viper.GetString("mission.target")
	prefix := viper.GetString("mission.prefix")
	if prefix == "" {
		prefix = "mission"
	}

	sys, err := conf.NewSystem()
	if err != nil {
		log.Fatalf("invalid bodies: %s", err)
	}
	meteor := readMeteor(sys)

	opts := []mmm.MissionOption{mmm.WithMissionLogger(klog), mmm.WithMissionMetrics(metrics)}
	if viper.IsSet("site.body") {
		opts = append(opts, mmm.WithLaunchSite(mmm.Site{BodyID: viper.GetString("site.body"), Offset: confReadVector("site.offset")}))
	}
	store := mmm.NewMemoryStore()
	mission, err := mmm.NewMission(conf, meteor, target, 0, startDT, store, opts...)
	if err != nil {
		log.Fatalf("could not create mission: %s", err)
	}

	if viper.GetBool("intercept.enabled") {
		// The platform velocity needs a second position.
		if _, err := mission.Tick(conf.Step); err != nil {
			log.Fatal(err)
		}
		var tofs []float64
		for _, days := range viper.GetStringSlice("intercept.flight_days") {
			var d float64
			if _, err := fmt.Sscanf(days, "%g", &d); err != nil {
				log.Fatalf("could not understand flight time `%s`: %s", days, err)
			}
			tofs = append(tofs, d*86400)
		}
		mass := viper.GetFloat64("intercept.mass")
		cands, err := mission.SearchTrajectories(tofs, mass)
		if err != nil {
			log.Fatal(err)
		}
		if best := mmm.SelectCandidate(cands, mmm.ByPropellant); best >= 0 {
			if _, err := mission.Commit(cands[best], mass, nil); err != nil {
				log.Fatal(err)
			}
		} else {
			log.Printf("[WARNING] no interception trajectory found")
		}
	}

	if _, err := mission.PropagateUntil(duration); err != nil {
		log.Fatal(err)
	}

	// Exports
	pathFile, err := os.Create(filepath.Join(conf.OutputDir, prefix+"-path.csv"))
	if err != nil {
		log.Fatal(err)
	}
	defer pathFile.Close()
	if err := mmm.WritePathCSV(pathFile, startDT, mission.Predictor().Samples()); err != nil {
		log.Fatal(err)
	}
	impactFile, err := os.Create(filepath.Join(conf.OutputDir, prefix+"-impacts.geojson"))
	if err != nil {
		log.Fatal(err)
	}
	defer impactFile.Close()
	if err := mmm.WriteImpactsGeoJSON(impactFile, startDT, store.History()); err != nil {
		log.Fatal(err)
	}
}

// readMeteor returns the meteor whose state is given relative to a body at epoch zero.
func readMeteor(sys *mmm.System) mmm.FreeBody {
	meteor := mmm.FreeBody{
		ID:       viper.GetString("meteor.id"),
		Mass:     viper.GetFloat64("meteor.mass"),
		Radius:   viper.GetFloat64("meteor.radius"),
		Position: confReadVector("meteor.position"),
		Velocity: confReadVector("meteor.velocity"),
	}
	if rel := viper.GetString("meteor.relative_to"); rel != "" {
		center, err := sys.PositionAt(rel, 0)
		if err != nil {
			log.Fatalf("could not understand body `%s`: %s", rel, err)
		}
		centerVel, _ := sys.VelocityAt(rel, 0, 60)
		meteor.Position = meteor.Position.Add(center)
		meteor.Velocity = meteor.Velocity.Add(centerVel)
	}
	return meteor
}

func confReadVector(key string) mmm.Vector3 {
	return mmm.Vec(viper.GetFloat64(key+".x"), viper.GetFloat64(key+".y"), viper.GetFloat64(key+".z"))
}

func confReadJDEorTime(key string) (dt time.Time) {
	jde := viper.GetFloat64(key)
	if jde == 0 {
		var perr error
		dt, perr = time.Parse(dateFormat, viper.GetString(key))
		if perr != nil {
			log.Fatalf("could not understand `%s`: %s", key, perr)
		}
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}
