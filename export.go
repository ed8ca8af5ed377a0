package mmm

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/soniakeys/meeus/v3/julian"
)

// EpochTime returns the date of an epoch (seconds) relative to the session reference date.
func EpochTime(ref time.Time, epoch float64) time.Time {
	sec, frac := math.Modf(epoch)
	return ref.Add(time.Duration(sec)*time.Second + time.Duration(frac*1e9))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WritePathCSV writes the predicted path samples as CSV records of
// <jd> <elapsed> <x> <y> <z> <vx> <vy> <vz>, with the Julian date of each epoch.
func WritePathCSV(w io.Writer, ref time.Time, samples []PathSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"jd", "elapsed", "x", "y", "z", "vx", "vy", "vz"}); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{
			formatFloat(julian.TimeToJD(EpochTime(ref, s.Epoch))), formatFloat(s.Elapsed),
			formatFloat(s.Position.X), formatFloat(s.Position.Y), formatFloat(s.Position.Z),
			formatFloat(s.Velocity.X), formatFloat(s.Velocity.Y), formatFloat(s.Velocity.Z),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCandidatesCSV writes one record per trajectory candidate.
func WriteCandidatesCSV(w io.Writer, ref time.Time, cands []TrajectoryCandidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"departure_jd", "arrival_jd", "tof_days", "dv_km_s", "target_dv_m_s", "propellant_kg", "arrival_miss_km", "kepler_miss_km"}); err != nil {
		return err
	}
	for _, c := range cands {
		kepler := ""
		if c.Verified {
			kepler = formatFloat(c.KeplerMiss)
		}
		record := []string{
			formatFloat(julian.TimeToJD(EpochTime(ref, c.DepartureEpoch))),
			formatFloat(julian.TimeToJD(EpochTime(ref, c.ArrivalEpoch))),
			formatFloat(c.FlightTime / secondsPerDay),
			formatFloat(c.DepartureΔv.Norm()),
			formatFloat(c.TargetΔv.Norm() * 1e3),
			formatFloat(c.Propellant),
			formatFloat(c.ArrivalMiss),
			kepler,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteImpactsGeoJSON writes the impact solutions as a collection of points in
// longitude and latitude.
func WriteImpactsGeoJSON(w io.Writer, ref time.Time, sols []ImpactSolution) error {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(sols))
	for i, s := range sols {
		if math.IsNaN(s.Longitude+s.Latitude) || math.IsInf(s.Longitude+s.Latitude, 0) {
			return fmt.Errorf("%w: impact %d at (%f, %f)", ErrInvalidInput, i, s.Longitude, s.Latitude)
		}
		pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: s.Longitude, Y: s.Latitude}})
		if err != nil {
			return fmt.Errorf("impact %d: %w", i, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: pt.AsGeometry(),
			ID:       i,
			Properties: map[string]interface{}{
				"body":  s.BodyID,
				"angle": s.Angle,
				"speed": s.Speed,
				"mass":  s.Mass,
				"jd":    julian.TimeToJD(EpochTime(ref, s.Epoch)),
				"valid": s.Valid,
				"final": s.Final,
			},
		})
	}
	return json.NewEncoder(w).Encode(fc)
}

// WriteGroundTrackGeoJSON writes the sub-point track of the predicted path over the
// body as a single line string. Repeated sub-points are written once; a track
// with less than two distinct points has no geometry.
func WriteGroundTrackGeoJSON(w io.Writer, sys *System, bodyID string, samples []PathSample) error {
	body, ok := sys.Body(bodyID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBody, bodyID)
	}
	coords := make([]float64, 0, 2*len(samples))
	for _, s := range samples {
		center, err := sys.PositionAt(bodyID, s.Epoch)
		if err != nil {
			return err
		}
		lon, lat, err := SurfaceCoordinates(body, s.Position.Sub(center), s.Epoch)
		if err != nil {
			continue
		}
		if n := len(coords); n >= 2 && coords[n-2] == lon && coords[n-1] == lat {
			continue
		}
		coords = append(coords, lon, lat)
	}
	feature := geom.GeoJSONFeature{
		Properties: map[string]interface{}{"body": bodyID, "samples": len(coords) / 2},
	}
	if len(coords) >= 4 {
		ls, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
		if err != nil {
			return fmt.Errorf("ground track of %s: %w", bodyID, err)
		}
		feature.Geometry = ls.AsGeometry()
	}
	return json.NewEncoder(w).Encode(feature)
}
