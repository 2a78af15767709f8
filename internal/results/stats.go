package results

import (
	"math"
	"strings"
	"unicode/utf8"

	"quiz-dashboard/internal/quiz"
)

type Statistics struct {
	Count          int
	AveragePercent int
	TopScore       int
}

// DeriveStatistics summarises attempts. The average divides by the first
// attempt's question count for every row, so it is only meaningful when all
// attempts belong to the same quiz.
func DeriveStatistics(attempts []quiz.Attempt) Statistics {
	if len(attempts) == 0 {
		return Statistics{}
	}

	sum := 0
	top := attempts[0].Score
	for _, attempt := range attempts {
		sum += attempt.Score
		if attempt.Score > top {
			top = attempt.Score
		}
	}

	stats := Statistics{
		Count:    len(attempts),
		TopScore: top,
	}
	if total := attempts[0].TotalQuestions; total > 0 {
		stats.AveragePercent = int(math.Round(float64(sum) / float64(len(attempts)*total) * 100))
	}
	return stats
}

type ChartSeries struct {
	Labels []string
	Values []int
	// Max is the first attempt's question count, used as the bar scale.
	Max int
}

// ProjectChartSeries labels each bar with the first three characters of the
// username, upper-cased. Labels can collide.
func ProjectChartSeries(attempts []quiz.Attempt) ChartSeries {
	series := ChartSeries{
		Labels: make([]string, 0, len(attempts)),
		Values: make([]int, 0, len(attempts)),
	}
	for _, attempt := range attempts {
		series.Labels = append(series.Labels, strings.ToUpper(prefixRunes(attempt.StudentUsername, 3)))
		series.Values = append(series.Values, attempt.Score)
	}
	if len(attempts) > 0 {
		series.Max = attempts[0].TotalQuestions
	}
	return series
}

func prefixRunes(value string, n int) string {
	if utf8.RuneCountInString(value) <= n {
		return value
	}
	runes := []rune(value)
	return string(runes[:n])
}
