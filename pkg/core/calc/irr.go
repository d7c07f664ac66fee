package calc

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoConvergentRate is matched by every IRR failure.
	ErrNoConvergentRate = errors.New("no convergent rate")
	// ErrNoSignChange: the sequence is all non-negative or all non-positive.
	ErrNoSignChange = fmt.Errorf("%w: cash flows never change sign", ErrNoConvergentRate)
	// ErrMultipleSignChanges: the sequence may have several real roots.
	ErrMultipleSignChanges = fmt.Errorf("%w: cash flows change sign more than once", ErrNoConvergentRate)
)

const (
	irrLowerBound = -0.999999
	irrUpperLimit = 1e6
	irrTolerance  = 1e-12
	irrMaxSteps   = 400
)

// SignChanges counts sign changes in a sequence, ignoring zeros.
func SignChanges(cashFlows []float64) int {
	changes := 0
	last := 0
	for _, cf := range cashFlows {
		s := sign(cf)
		if s == 0 {
			continue
		}
		if last != 0 && s != last {
			changes++
		}
		last = s
	}
	return changes
}

// IRR is the internal rate of return: the rate r > -1 at which NPV(cashFlows, r) = 0.
//
// Only sequences with exactly one sign change are accepted; by Descartes' rule of signs
// they have a single root on (-1, +inf), which is located by bisection. Because only the
// sign of the NPV steers the search, scaling every flow by a positive constant leaves
// the result unchanged.
func IRR(cashFlows []float64) (float64, error) {
	switch SignChanges(cashFlows) {
	case 0:
		return 0, ErrNoSignChange
	case 1:
	default:
		return 0, ErrMultipleSignChanges
	}

	lo, hi := irrLowerBound, 1.0
	fLo := sign(NPV(cashFlows, lo))
	if fLo == 0 {
		return lo, nil
	}

	// Expand the upper bound until the NPV changes sign.
	fHi := sign(NPV(cashFlows, hi))
	for fHi == fLo {
		if hi >= irrUpperLimit {
			return 0, fmt.Errorf("%w: no root below %g", ErrNoConvergentRate, irrUpperLimit)
		}
		lo = hi
		hi = hi*2 + 1
		fHi = sign(NPV(cashFlows, hi))
	}
	if fHi == 0 {
		return hi, nil
	}

	for i := 0; i < irrMaxSteps && hi-lo > irrTolerance*math.Max(1, math.Abs(lo)); i++ {
		mid := lo + (hi-lo)/2
		fMid := sign(NPV(cashFlows, mid))
		if fMid == 0 {
			return mid, nil
		}
		if fMid == fLo {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2, nil
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
