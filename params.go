package gto

import "math"

// DiscountParams are the configuration options for regret and strategy sum
// weighting. The zero value is valid and corresponds to "vanilla" CFR.
type DiscountParams struct {
	UseRegretMatchingPlus bool    // CFR+
	LinearWeighting       bool    // Linear CFR
	DiscountAlpha         float64 // Discounted CFR
	DiscountBeta          float64 // Discounted CFR
	DiscountGamma         float64 // Discounted CFR
}

// GetDiscountFactors returns the discount factors to apply to positive
// regrets, negative regrets and strategy sums after the given iteration,
// for the various CFR weighting schemes: CFR+, linear CFR, etc.
func (p DiscountParams) GetDiscountFactors(iter int) (positive, negative, sum float64) {
	positive = 1.0
	negative = 1.0
	sum = 1.0

	// See: https://arxiv.org/pdf/1809.04040.pdf
	// Linear CFR is equivalent to weighting the reach prob on each
	// iteration by (t / (t+1)), and this reduces numerical instability.
	if p.LinearWeighting {
		sum = float64(iter) / float64(iter+1)
	}

	if p.UseRegretMatchingPlus {
		negative = 0.0 // No negative regrets.
	}

	if p.DiscountAlpha != 0 {
		// t^alpha / (t^alpha + 1)
		x := math.Pow(float64(iter), p.DiscountAlpha)
		positive = x / (x + 1.0)
	}

	if p.DiscountBeta != 0 {
		// t^beta / (t^beta + 1)
		x := math.Pow(float64(iter), p.DiscountBeta)
		negative = x / (x + 1.0)
	}

	if p.DiscountGamma != 0 {
		// (t / (t+1)) ^ gamma
		x := float64(iter) / float64(iter+1)
		sum = math.Pow(x, p.DiscountGamma)
	}

	return
}
