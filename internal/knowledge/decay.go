package knowledge

import (
	"math"
	"time"
)

// EffectiveConfidence is the ranking score of a stored confidence last
// reinforced at lastUsed: score * 0.5^(age/halfLife). Decay never touches the
// stored value. A zero halfLife, a zero lastUsed or a future lastUsed return
// score unchanged.
func EffectiveConfidence(score float64, lastUsed, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 || lastUsed.IsZero() {
		return score
	}
	age := now.Sub(lastUsed)
	if age <= 0 {
		return score
	}
	return score * math.Exp(-math.Ln2*age.Hours()/halfLife.Hours())
}
