// Package query parses free-form budget, deadline, and delivery-estimate
// text into numeric constraints. All functions are pure.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerRe = regexp.MustCompile(`\d+`)
)

// ParseBudget extracts a numeric budget from strings like "$200",
// "under 100", or "50 USD". Thousands separators are ignored. The second
// return is false when the text contains no digits.
func ParseBudget(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	m := decimalRe.FindString(strings.ReplaceAll(text, ",", ""))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDeadlineDays converts a deadline phrase to a maximum delivery-day
// count: "3 days" -> 3, "1 week" -> 7, "2 months" -> 60.
func ParseDeadlineDays(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	s := strings.ToLower(strings.TrimSpace(text))
	m := integerRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	switch {
	case strings.Contains(s, "week"):
		return n * 7, true
	case strings.Contains(s, "month"):
		return n * 30, true
	default:
		return n, true
	}
}

// ParseEstimateDays converts a retailer delivery estimate ("3 days",
// "2-4 days", "1 week") to the worst-case day count, taking the maximum
// integer found. A digitless estimate mentioning "week" counts as 7;
// otherwise the estimate is unparseable and the second return is false,
// which callers treat as "do not filter".
func ParseEstimateDays(estimate string) (int, bool) {
	if estimate == "" {
		return 0, false
	}
	s := strings.ToLower(strings.TrimSpace(estimate))
	nums := integerRe.FindAllString(s, -1)
	if len(nums) == 0 {
		if strings.Contains(s, "week") {
			return 7, true
		}
		return 0, false
	}
	max := 0
	for _, m := range nums {
		if n, err := strconv.Atoi(m); err == nil && n > max {
			max = n
		}
	}
	if strings.Contains(s, "week") {
		return max * 7, true
	}
	return max, true
}

// DeliveryDays converts a delivery estimate to a day count for scoring.
// Unlike ParseEstimateDays it never fails: unparseable estimates default
// to 5 days, and "tomorrow" counts as 1.
func DeliveryDays(estimate string) float64 {
	if estimate == "" {
		return 5
	}
	s := strings.ToLower(estimate)
	nums := integerRe.FindAllString(s, -1)
	if len(nums) > 0 {
		max := 0
		for _, m := range nums {
			if n, err := strconv.Atoi(m); err == nil && n > max {
				max = n
			}
		}
		return float64(max)
	}
	if strings.Contains(s, "tomorrow") {
		return 1
	}
	return 5
}
