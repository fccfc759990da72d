package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ff3Fit is one ticker's fitted Fama-French three-factor model plus the
// resulting FF3-adjusted cumulative abnormal return over the 20-day event
// window, computed as the sum of residuals (actual excess return minus
// the model's predicted excess return) on event-window trading days.
type ff3Fit struct {
	alpha, beta, smb, hml float64
	rSquared              float64
	sampleSize            int
	eventCAR              float64
}

// runFF3 regresses daily stock excess returns against the three Fama-French
// factors over the [-250,-10] trading-day estimation window (§4.8),
// requiring at least 200 observations and rejecting fits with R² above
// 0.95 as a likely data-alignment artifact rather than genuine factor
// exposure.
func (b *Backtester) runFF3(ctx context.Context, ticker string, eventDate time.Time) (ff3Fit, error) {
	// The window bounds count trading days (bar positions relative to the
	// event date); 365 calendar days of history cover 250 trading days.
	estStart := eventDate.AddDate(0, 0, windowEstimationStart*7/5-15)

	stockBars, err := b.prices.DailyCloses(ctx, ticker, estStart, eventDate.AddDate(0, 0, 60))
	if err != nil {
		return ff3Fit{}, err
	}
	factorRows, err := b.factors.DailyFactors(ctx, estStart, eventDate.AddDate(0, 0, 60))
	if err != nil {
		return ff3Fit{}, err
	}

	stockSeries, err := fillGaps(stockBars)
	if err != nil {
		return ff3Fit{}, err
	}

	factorByDate := make(map[string]FactorRow, len(factorRows))
	for _, f := range factorRows {
		factorByDate[dateKey(f.Date)] = f
	}

	eventIdx := sort.Search(len(stockSeries.dates), func(i int) bool { return !stockSeries.dates[i].Before(eventDate) })
	var ys, mktrf, smb, hml []float64
	for i := 1; i < len(stockSeries.dates); i++ {
		d := stockSeries.dates[i]
		if rel := i - eventIdx; rel < windowEstimationStart || rel > windowEstimationEnd {
			continue
		}
		prevDate := stockSeries.dates[i-1]
		sc, ok1 := stockSeries.closes[dateKey(d)]
		sp, ok2 := stockSeries.closes[dateKey(prevDate)]
		f, ok3 := factorByDate[dateKey(d)]
		if !ok1 || !ok2 || !ok3 || sp <= 0 {
			continue
		}
		excessReturn := logReturn(sp, sc) - f.RF
		ys = append(ys, excessReturn)
		mktrf = append(mktrf, f.MktRF)
		smb = append(smb, f.SMB)
		hml = append(hml, f.HML)
	}

	if len(ys) < minEstimationObs {
		return ff3Fit{}, fmt.Errorf("ff3 estimation window has %d observations, need >= %d", len(ys), minEstimationObs)
	}

	n := len(ys)
	x := mat.NewDense(n, 4, nil)
	y := mat.NewVecDense(n, ys)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, mktrf[i])
		x.Set(i, 2, smb[i])
		x.Set(i, 3, hml[i])
	}

	var qr mat.QR
	qr.Factorize(x)
	var coeffs mat.VecDense
	if err := qr.SolveVecTo(&coeffs, false, y); err != nil {
		return ff3Fit{}, fmt.Errorf("ff3 ols solve: %w", err)
	}

	alpha, beta, smbCoef, hmlCoef := coeffs.AtVec(0), coeffs.AtVec(1), coeffs.AtVec(2), coeffs.AtVec(3)

	fitted := make([]float64, n)
	for i := 0; i < n; i++ {
		fitted[i] = alpha + beta*mktrf[i] + smbCoef*smb[i] + hmlCoef*hml[i]
	}
	rSquared := stat.RSquaredFrom(fitted, ys, nil)
	if rSquared > maxEstimationRSquared {
		return ff3Fit{}, fmt.Errorf("ff3 r-squared %.4f exceeds overfit ceiling %.2f", rSquared, maxEstimationRSquared)
	}

	eventCAR := b.ff3EventResidualCAR(stockSeries, factorByDate, eventDate, alpha, beta, smbCoef, hmlCoef, 20)

	return ff3Fit{
		alpha: alpha, beta: beta, smb: smbCoef, hml: hmlCoef,
		rSquared: rSquared, sampleSize: n, eventCAR: eventCAR,
	}, nil
}

func (b *Backtester) ff3EventResidualCAR(stockSeries series, factorByDate map[string]FactorRow, eventDate time.Time,
	alpha, beta, smbCoef, hmlCoef float64, windowDays int) float64 {
	var car float64
	count := 0
	for i := 1; i < len(stockSeries.dates); i++ {
		d := stockSeries.dates[i]
		if d.Before(eventDate) {
			continue
		}
		if count >= windowDays {
			break
		}
		prevDate := stockSeries.dates[i-1]
		sc, ok1 := stockSeries.closes[dateKey(d)]
		sp, ok2 := stockSeries.closes[dateKey(prevDate)]
		f, ok3 := factorByDate[dateKey(d)]
		if !ok1 || !ok2 || !ok3 || sp <= 0 {
			continue
		}
		actual := logReturn(sp, sc) - f.RF
		predicted := alpha + beta*f.MktRF + smbCoef*f.SMB + hmlCoef*f.HML
		car += actual - predicted
		count++
	}
	return car
}
