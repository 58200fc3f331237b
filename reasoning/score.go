package reasoning

import (
	"regexp"
	"strconv"
)

// DefaultScore is used whenever a judge answer carries no usable number.
const DefaultScore = 0.5

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// TextToScore extracts a score in [0, 1] from free-form judge output. The last
// number wins, so judges that restate the scale before answering still parse.
func TextToScore(text string) float64 {
	if text == "" {
		return DefaultScore
	}
	numbers := numberPattern.FindAllString(text, -1)
	if len(numbers) == 0 {
		return DefaultScore
	}
	score, err := strconv.ParseFloat(numbers[len(numbers)-1], 64)
	if err != nil || score < 0 || score > 1 {
		return DefaultScore
	}
	return score
}
