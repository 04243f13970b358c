package features

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// datasetColumns is the full per-instrument CSV layout: raw bar, intermediates
// in their computed positions, model features, then the label.
var datasetColumns = []string{
	"date", "open", "high", "low", "close", "volume",
	"return_cc", "return_oc", "overnight_gap", "upside", "downside",
	"ma_10", "ma_50", "price_vs_ma10", "price_vs_ma50", "ma_diff",
	"ma_10_slope", "ma_50_slope",
	"volatility_10", "volatility_50", "vol_ratio", "volatility_annual",
	"parkinson_vol", "vol_change", "intraday_range", "close_position", "rsi",
	"macd_norm", "macd_signal_norm", "macd_hist_norm",
	"volume_ma_10", "volume_ma_50", "volume_ratio", "volume_trend",
	"price_volume", "day_of_week", "target",
}

// WriteDataset writes the training dataset for one instrument, one row per
// eligible session, ready for the offline training collaborator.
func WriteDataset(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(datasetColumns); err != nil {
		return err
	}
	for i := range rows {
		if err := w.Write(rows[i].record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (r *Row) record() []string {
	fields := []float64{
		r.Open, r.High, r.Low, r.Close, r.Volume,
		r.ReturnCC, r.ReturnOC, r.OvernightGap, r.Upside, r.Downside,
		r.MA10, r.MA50, r.PriceVsMA10, r.PriceVsMA50, r.MADiff,
		r.MA10Slope, r.MA50Slope,
		r.Volatility10, r.Volatility50, r.VolRatio, r.VolAnnual,
		r.ParkinsonVol, r.VolChange, r.IntradayRange, r.ClosePosition, r.RSI,
		r.MACDNorm, r.MACDSignalNorm, r.MACDHistNorm,
		r.VolumeMA10, r.VolumeMA50, r.VolumeRatio, r.VolumeTrend,
		r.PriceVolume, r.DayOfWeek,
	}
	rec := make([]string, 0, len(fields)+2)
	rec = append(rec, r.Date.Format("2006-01-02"))
	for _, v := range fields {
		rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
	}
	rec = append(rec, strconv.Itoa(r.Target))
	return rec
}
