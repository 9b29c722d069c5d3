package db

import "math"

// QualityScore rates a closing session from its summary inputs. The weights
// are part of the stored-data contract and must not drift: downstream
// reporting compares scores across sessions recorded over time.
//
//	base 4.0
//	+0.5 per accomplishment (cap +4)
//	+0.7 per bug fixed      (cap +3)
//	+0.3 per decision       (cap +2)
//	-0.5 per error, softened to -0.3 when bugs were also fixed
//	+1.0 breakthrough > 50 chars, +0.5 more > 150
//	+1.0 total serialized content > 800 chars, else +0.5 > 500
//	+1.0 perfect session: zero errors and >= 3 accomplishments
//	+0.5 all-bugs-fixed: >= 2 bugs fixed and zero errors
//
// The result is rounded and clamped to an integer in [1, 10].
func QualityScore(accomplishments, errors []string, breakthrough string, decisions, bugsFixed []string) int64 {
	score := 4.0

	score += math.Min(float64(len(accomplishments))*0.5, 4.0)
	score += math.Min(float64(len(bugsFixed))*0.7, 3.0)
	score += math.Min(float64(len(decisions))*0.3, 2.0)

	errorPenalty := 0.5
	if len(bugsFixed) > 0 {
		// Errors hit while fixing bugs are learning, not failure.
		errorPenalty = 0.3
	}
	score -= float64(len(errors)) * errorPenalty

	if len(breakthrough) > 50 {
		score += 1.0
		if len(breakthrough) > 150 {
			score += 0.5
		}
	}

	total := len(breakthrough) +
		len(marshalJSON(accomplishments, "[]")) +
		len(marshalJSON(errors, "[]")) +
		len(marshalJSON(decisions, "[]")) +
		len(marshalJSON(bugsFixed, "[]"))
	if total > 800 {
		score += 1.0
	} else if total > 500 {
		score += 0.5
	}

	if len(errors) == 0 && len(accomplishments) >= 3 {
		score += 1.0
	}
	if len(errors) == 0 && len(bugsFixed) >= 2 {
		score += 0.5
	}

	rounded := int64(math.Round(score))
	if rounded < 1 {
		return 1
	}
	if rounded > 10 {
		return 10
	}
	return rounded
}
