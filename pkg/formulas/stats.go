package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Skewness calculates the sample skewness of a slice of float64 values.
// Returns 0 for samples too short or too degenerate for the moment to be
// defined (fewer than 3 observations, or zero variance).
func Skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	if StdDev(data) == 0 {
		return 0
	}
	s := stat.Skew(data, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// ExcessKurtosis calculates the sample excess kurtosis (Fisher definition,
// normal distribution = 0). Returns 0 when undefined (fewer than 4
// observations, or zero variance).
func ExcessKurtosis(data []float64) float64 {
	if len(data) < 4 {
		return 0
	}
	if StdDev(data) == 0 {
		return 0
	}
	k := stat.ExKurtosis(data, nil)
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0
	}
	return k
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(trading days per year)
func AnnualizedVolatility(dailyReturns []float64, tradingDays float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(tradingDays)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// LogReturns converts prices to daily log returns
// Returns[i] = ln(Price[i] / Price[i-1])
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 && prices[i] > 0 {
			returns = append(returns, math.Log(prices[i]/prices[i-1]))
		}
	}

	return returns
}

// SharpeRatio calculates the annualized Sharpe ratio from daily returns.
// riskFree is the annual risk-free rate.
func SharpeRatio(dailyReturns []float64, riskFree float64, tradingDays float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}

	std := StdDev(dailyReturns)
	if std == 0 {
		return 0
	}

	excess := Mean(dailyReturns) - riskFree/tradingDays
	return excess / std * math.Sqrt(tradingDays)
}
