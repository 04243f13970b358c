package features

import (
	"math"
	"time"

	"github.com/rvenkat/swing-trader/internal/marketdata"
)

// Row is one eligible session: the raw bar, the rolling intermediates, and
// every model feature, all fully defined. Rows with any undefined column are
// dropped whole by Compute.
type Row struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	// intermediates, written to the dataset but never fed to the model
	MA10       float64
	MA50       float64
	VolumeMA10 float64
	VolumeMA50 float64

	// model features, in Columns order
	ReturnCC       float64
	ReturnOC       float64
	OvernightGap   float64
	Upside         float64
	Downside       float64
	PriceVsMA10    float64
	PriceVsMA50    float64
	MADiff         float64
	MA10Slope      float64
	MA50Slope      float64
	Volatility10   float64
	Volatility50   float64
	VolRatio       float64
	VolAnnual      float64
	ParkinsonVol   float64
	VolChange      float64
	IntradayRange  float64
	ClosePosition  float64
	RSI            float64
	MACDNorm       float64
	MACDSignalNorm float64
	MACDHistNorm   float64
	VolumeRatio    float64
	VolumeTrend    float64
	PriceVolume    float64
	DayOfWeek      float64

	// Target is the training label; only meaningful when Compute ran with a target.
	Target int
}

// Columns is the model input order. The classifier was trained against exactly
// this ordering; changing it invalidates every persisted model.
var Columns = []string{
	"return_cc", "return_oc", "overnight_gap", "upside", "downside",
	"price_vs_ma10", "price_vs_ma50", "ma_diff", "ma_10_slope", "ma_50_slope",
	"volatility_10", "volatility_50", "vol_ratio", "volatility_annual",
	"parkinson_vol", "vol_change", "intraday_range", "close_position", "rsi",
	"macd_norm", "macd_signal_norm", "macd_hist_norm",
	"volume_ratio", "volume_trend", "price_volume", "day_of_week",
}

// Vector returns the model features in Columns order.
func (r *Row) Vector() []float64 {
	return []float64{
		r.ReturnCC, r.ReturnOC, r.OvernightGap, r.Upside, r.Downside,
		r.PriceVsMA10, r.PriceVsMA50, r.MADiff, r.MA10Slope, r.MA50Slope,
		r.Volatility10, r.Volatility50, r.VolRatio, r.VolAnnual,
		r.ParkinsonVol, r.VolChange, r.IntradayRange, r.ClosePosition, r.RSI,
		r.MACDNorm, r.MACDSignalNorm, r.MACDHistNorm,
		r.VolumeRatio, r.VolumeTrend, r.PriceVolume, r.DayOfWeek,
	}
}

const parkinsonCoeff = 1.0 / (4.0 * math.Ln2)

// Compute derives one Row per eligible session from a chronological bar
// history. When targetReturn is non-nil the training label (next-session close
// return above the threshold) is attached and the final session, whose label
// is undefined, is dropped.
//
// Both the training-dataset path and the live-inference path call this and
// nothing else; the two must never diverge.
func Compute(bars []marketdata.Bar, targetReturn *float64) []Row {
	n := len(bars)
	if n == 0 {
		return nil
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closep := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range bars {
		open[i], high[i], low[i], closep[i], volume[i] = b.Open, b.High, b.Low, b.Close, b.Volume
	}

	returnCC := pctChange(closep, 1)
	returnOC := make([]float64, n)
	overnightGap := nanSlice(n)
	upside := nanSlice(n)
	downside := nanSlice(n)
	for i := 0; i < n; i++ {
		returnOC[i] = (closep[i] - open[i]) / open[i]
		if i > 0 {
			prev := closep[i-1]
			overnightGap[i] = (open[i] - prev) / prev
			upside[i] = (high[i] - prev) / prev
			downside[i] = (low[i] - prev) / prev
		}
	}

	ma10 := rollingMean(closep, 10)
	ma50 := rollingMean(closep, 50)
	ma10Slope := pctChange(ma10, 5)
	ma50Slope := pctChange(ma50, 5)

	vol10 := rollingStd(returnCC, 10)
	vol50 := rollingStd(returnCC, 50)
	volChange := pctChange(vol10, 5)

	hlRange := make([]float64, n)
	for i := 0; i < n; i++ {
		lr := math.Log(high[i] / low[i])
		hlRange[i] = math.Sqrt(parkinsonCoeff * lr * lr)
	}
	parkinson := rollingMean(hlRange, 10)

	// RSI(14): the first delta is undefined and counts as zero gain and zero
	// loss, matching the training pipeline.
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closep[i] - closep[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	gain14 := rollingMean(gains, 14)
	loss14 := rollingMean(losses, 14)

	ema12 := ewmMean(closep, 12)
	ema26 := ewmMean(closep, 26)
	macd := make([]float64, n)
	for i := 0; i < n; i++ {
		macd[i] = ema12[i] - ema26[i]
	}
	macdSignal := ewmMean(macd, 9)

	volMA10 := rollingMean(volume, 10)
	volMA50 := rollingMean(volume, 50)

	withTarget := targetReturn != nil
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		r := Row{
			Date:   bars[i].Date,
			Open:   open[i],
			High:   high[i],
			Low:    low[i],
			Close:  closep[i],
			Volume: volume[i],

			MA10:       ma10[i],
			MA50:       ma50[i],
			VolumeMA10: volMA10[i],
			VolumeMA50: volMA50[i],

			ReturnCC:       returnCC[i],
			ReturnOC:       returnOC[i],
			OvernightGap:   overnightGap[i],
			Upside:         upside[i],
			Downside:       downside[i],
			PriceVsMA10:    (closep[i] - ma10[i]) / ma10[i],
			PriceVsMA50:    (closep[i] - ma50[i]) / ma50[i],
			MADiff:         (ma10[i] - ma50[i]) / ma50[i],
			MA10Slope:      ma10Slope[i],
			MA50Slope:      ma50Slope[i],
			Volatility10:   vol10[i],
			Volatility50:   vol50[i],
			VolRatio:       vol10[i] / vol50[i],
			VolAnnual:      vol10[i] * math.Sqrt(252),
			ParkinsonVol:   parkinson[i],
			VolChange:      volChange[i],
			IntradayRange:  (high[i] - low[i]) / closep[i],
			ClosePosition:  (closep[i] - low[i]) / (high[i] - low[i]),
			RSI:            100 - 100/(1+gain14[i]/loss14[i]),
			MACDNorm:       macd[i] / closep[i],
			MACDSignalNorm: macdSignal[i] / closep[i],
			MACDHistNorm:   (macd[i] - macdSignal[i]) / closep[i],
			VolumeRatio:    volume[i] / volMA10[i],
			VolumeTrend:    volMA10[i] / volMA50[i],
			PriceVolume:    returnCC[i] * (volume[i] / volMA10[i]),
			DayOfWeek:      float64((int(bars[i].Date.Weekday()) + 6) % 7),
		}

		if withTarget {
			if i == n-1 {
				continue // next-session return unknown
			}
			if !finite(returnCC[i+1]) {
				continue
			}
			if returnCC[i+1] > *targetReturn {
				r.Target = 1
			}
		}

		if !r.valid() {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

// valid reports whether every computed column is finite.
func (r *Row) valid() bool {
	for _, v := range []float64{
		r.MA10, r.MA50, r.VolumeMA10, r.VolumeMA50,
	} {
		if !finite(v) {
			return false
		}
	}
	for _, v := range r.Vector() {
		if !finite(v) {
			return false
		}
	}
	return true
}

// Latest returns the last eligible row of a live history, or nil when no
// session survived the drop policy.
func Latest(bars []marketdata.Bar) *Row {
	rows := Compute(bars, nil)
	if len(rows) == 0 {
		return nil
	}
	return &rows[len(rows)-1]
}
