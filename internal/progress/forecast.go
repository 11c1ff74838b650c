package progress

import (
	"fmt"
	"math"
	"time"
)

// Method selects the smoothing model for Forecast.
type Method string

const (
	// MethodMovingAverage fits a sliding-window mean.
	MethodMovingAverage Method = "moving_average"
	// MethodExponential fits simple exponential smoothing.
	MethodExponential Method = "exponential"
)

// Forecast defaults.
const (
	DefaultWindow = 7
	DefaultDecay  = 0.3
	DefaultBandK  = 1.0
)

// InvalidParameterError reports a forecast parameter outside its valid
// range. Odd data (empty or short series) never produces it.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// ForecastOptions configures Forecast. Nil Window and Decay take the
// defaults above; a supplied value is validated even when the chosen
// method ignores it, so an explicit zero window is an error rather than
// a silent fallback.
type ForecastOptions struct {
	Method  Method
	Window  *int     // moving average window, must be > 0 when set
	Decay   *float64 // smoothing factor, must be inside (0, 1) when set
	BandK   float64  // band half-width in residual standard deviations
	Horizon int      // number of future points
}

// SamplePoint is one observed value in a trailing series.
type SamplePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// HistoryPoint is an observed point with its fitted value and band.
type HistoryPoint struct {
	Date   time.Time `json:"date"`
	Actual float64   `json:"actual"`
	Fitted float64   `json:"fitted"`
	Lower  float64   `json:"lower"`
	Upper  float64   `json:"upper"`
}

// ForecastPoint is one predicted future point with its band.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// ForecastSeries is the fitted history plus the flat-extended future.
type ForecastSeries struct {
	History []HistoryPoint  `json:"history"`
	Future  []ForecastPoint `json:"future"`
}

// Forecast fits a short-horizon trend model over an observed series and
// extends it flat at the last fitted value; there is deliberately no
// trend or seasonality term. The band is a symmetric ±k·σ around every
// fitted and predicted point, with σ the sample standard deviation of
// the (actual − fitted) residuals. Future dates continue at the series'
// daily cadence. An empty input yields an empty series without error.
func Forecast(points []SamplePoint, opts ForecastOptions) (*ForecastSeries, error) {
	method := opts.Method
	if method == "" {
		method = MethodMovingAverage
	}

	window := DefaultWindow
	if opts.Window != nil {
		window = *opts.Window
	}
	decay := DefaultDecay
	if opts.Decay != nil {
		decay = *opts.Decay
	}
	bandK := opts.BandK
	if bandK == 0 {
		bandK = DefaultBandK
	}

	if window <= 0 {
		return nil, &InvalidParameterError{Param: "window", Reason: "must be positive"}
	}
	if decay <= 0 || decay >= 1 {
		return nil, &InvalidParameterError{Param: "decay", Reason: "must be inside (0, 1)"}
	}
	switch method {
	case MethodMovingAverage, MethodExponential:
	default:
		return nil, &InvalidParameterError{Param: "method", Reason: fmt.Sprintf("unknown method %q", method)}
	}

	if len(points) == 0 {
		return &ForecastSeries{}, nil
	}

	var fitted []float64
	switch method {
	case MethodMovingAverage:
		fitted = fitMovingAverage(points, window)
	case MethodExponential:
		fitted = fitExponential(points, decay)
	}

	sigma := residualStdDev(points, fitted)
	band := bandK * sigma

	series := &ForecastSeries{
		History: make([]HistoryPoint, len(points)),
	}
	for i, p := range points {
		series.History[i] = HistoryPoint{
			Date:   p.Date,
			Actual: p.Value,
			Fitted: fitted[i],
			Lower:  fitted[i] - band,
			Upper:  fitted[i] + band,
		}
	}

	last := fitted[len(fitted)-1]
	lastDate := points[len(points)-1].Date
	for i := 1; i <= opts.Horizon; i++ {
		series.Future = append(series.Future, ForecastPoint{
			Date:      lastDate.AddDate(0, 0, i),
			Predicted: last,
			Lower:     last - band,
			Upper:     last + band,
		})
	}

	return series, nil
}

// fitMovingAverage computes, for each point, the mean of the window of
// observations ending at that point (shorter at the head of the series).
func fitMovingAverage(points []SamplePoint, window int) []float64 {
	fitted := make([]float64, len(points))
	var sum float64
	for i, p := range points {
		sum += p.Value
		if i >= window {
			sum -= points[i-window].Value
		}
		n := i + 1
		if n > window {
			n = window
		}
		fitted[i] = sum / float64(n)
	}
	return fitted
}

// fitExponential computes simple exponential smoothing seeded with the
// first observation.
func fitExponential(points []SamplePoint, decay float64) []float64 {
	fitted := make([]float64, len(points))
	fitted[0] = points[0].Value
	for i := 1; i < len(points); i++ {
		fitted[i] = decay*points[i].Value + (1-decay)*fitted[i-1]
	}
	return fitted
}

// residualStdDev is the sample standard deviation of actual − fitted.
// Fewer than two residuals give 0.
func residualStdDev(points []SamplePoint, fitted []float64) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}

	var mean float64
	residuals := make([]float64, n)
	for i, p := range points {
		residuals[i] = p.Value - fitted[i]
		mean += residuals[i]
	}
	mean /= float64(n)

	var ss float64
	for _, r := range residuals {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
