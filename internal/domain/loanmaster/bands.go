package loanmaster

import (
	"errors"
	"math"
)

var ErrSourceNotFound = errors.New("source dataset not found")

// Band is one labelled interval (Lower, Upper]. The first band of a set is
// also closed at its lower bound.
type Band struct {
	Label string
	Lower float64
	Upper float64
}

// Bands is an ordered, contiguous set of bands.
type Bands []Band

var IncomeBands = Bands{
	{Label: "Low", Lower: 0, Upper: 300000},
	{Label: "Medium", Lower: 300000, Upper: 600000},
	{Label: "High", Lower: 600000, Upper: 1000000},
	{Label: "Very High", Lower: 1000000, Upper: math.Inf(1)},
}

var CreditScoreBands = Bands{
	{Label: "Poor", Lower: 0, Upper: 600},
	{Label: "Average", Lower: 600, Upper: 700},
	{Label: "Good", Lower: 700, Upper: 800},
	{Label: "Excellent", Lower: 800, Upper: math.Inf(1)},
}

// Assign returns the label of the band containing x, or false when x is NaN
// or falls outside every band.
func (bs Bands) Assign(x float64) (string, bool) {
	if math.IsNaN(x) {
		return "", false
	}
	for i, b := range bs {
		if x > b.Lower && x <= b.Upper {
			return b.Label, true
		}
		if i == 0 && x == b.Lower {
			return b.Label, true
		}
	}
	return "", false
}
