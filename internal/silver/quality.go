package silver

import (
	"math"

	"mandi-feature-lab/internal/domain"
)

// QualityConfig controls flagging thresholds.
type QualityConfig struct {
	WindowDays        int     // trailing statistics window length
	OutlierStdDevs    float64 // z-score beyond which a field is an outlier
	CoverageThreshold float64 // minimum present-day fraction for full trust
	MinWindowObs      int     // observations required before outlier testing
}

// DefaultQualityConfig returns the standard thresholds.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		WindowDays:        30,
		OutlierStdDevs:    3.0,
		CoverageThreshold: 0.5,
		MinWindowObs:      5,
	}
}

// FlagQuality assigns quality flags and the per-record imputed fraction
// over a chronologically ordered, gap-imputed per-market sequence.
//
// Precedence: IMPUTED (from the imputer) is never upgraded; a record whose
// trailing coverage falls below the threshold, or that carries a field
// beyond the outlier bound, becomes LOW_COVERAGE; everything else is GOOD.
// The trailing window for a record at date t is [t-WindowDays+1, t], with
// the fixed window length as denominator, so records near the start of a
// series report low coverage rather than an optimistic ratio.
func FlagQuality(records []*domain.SilverRecord, cfg QualityConfig) {
	if cfg.WindowDays <= 0 {
		cfg = DefaultQualityConfig()
	}

	byDate := make(map[domain.Date]*domain.SilverRecord, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}

	for _, rec := range records {
		present, imputed := 0, 0
		for d := rec.Date - domain.Date(cfg.WindowDays) + 1; d <= rec.Date; d++ {
			w, ok := byDate[d]
			if !ok {
				continue
			}
			present++
			if w.Flag == domain.QualityImputed {
				imputed++
			}
		}

		rec.PctImputed = float64(imputed) / float64(cfg.WindowDays)
		if rec.Flag == domain.QualityImputed {
			continue
		}

		coverage := float64(present) / float64(cfg.WindowDays)
		if coverage < cfg.CoverageThreshold {
			rec.Flag = domain.QualityLowCoverage
			continue
		}

		if hasOutlierField(rec, byDate, cfg) {
			rec.Flag = domain.QualityLowCoverage
			continue
		}

		rec.Flag = domain.QualityGood
	}
}

// monitoredFields selects the quantities subject to outlier testing.
// Precipitation is excluded: daily rainfall is heavy-tailed and a z-score
// would flag every monsoon burst.
func monitoredFields(r *domain.SilverRecord) []*float64 {
	return []*float64{r.TempMeanC, r.TempMaxC, r.TempMinC, r.HumidityPct, r.WindMs}
}

// hasOutlierField tests each monitored field against the trailing window
// mean, excluding the record under test from its own baseline.
func hasOutlierField(rec *domain.SilverRecord, byDate map[domain.Date]*domain.SilverRecord, cfg QualityConfig) bool {
	for fieldIdx, value := range monitoredFields(rec) {
		if value == nil {
			continue
		}

		var window []float64
		for d := rec.Date - domain.Date(cfg.WindowDays) + 1; d < rec.Date; d++ {
			w, ok := byDate[d]
			if !ok {
				continue
			}
			if v := monitoredFields(w)[fieldIdx]; v != nil {
				window = append(window, *v)
			}
		}
		if len(window) < cfg.MinWindowObs {
			continue
		}

		mean, std := meanStd(window)
		if std == 0 {
			continue
		}
		if math.Abs(*value-mean) > cfg.OutlierStdDevs*std {
			return true
		}
	}
	return false
}

// meanStd returns the mean and sample standard deviation.
func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}
