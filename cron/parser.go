package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fieldBounds is the inclusive [min, max] range for each of the five
// fields, in the order minute, hour, day-of-month, month, day-of-week.
var fieldBounds = [5][2]int{
	{0, 59}, // minute
	{0, 23}, // hour
	{1, 31}, // day of month
	{1, 12}, // month
	{0, 7},  // day of week (0 and 7 both mean Sunday)
}

// Schedule is a parsed cron expression: a matcher that answers "does this
// instant match?" and "what is the next matching instant after T?".
type Schedule struct {
	minutes  map[int]struct{}
	hours    map[int]struct{}
	doms     map[int]struct{}
	months   map[int]struct{}
	dows     map[int]struct{}
	original string
}

// String returns the original expression Parse was called with.
func (s *Schedule) String() string {
	return s.original
}

// Parse parses a 5-field cron expression: minute hour day-of-month month
// day-of-week. See package doc for field syntax.
func Parse(expr string) (*Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: blank expression", ErrInvalidCronExpression)
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidCronExpression, len(fields))
	}

	sets := make([]map[int]struct{}, 5)
	for i, f := range fields {
		set, err := parseField(f, fieldBounds[i][0], fieldBounds[i][1])
		if err != nil {
			return nil, fmt.Errorf("%w: field %d (%q): %v", ErrInvalidCronExpression, i, f, err)
		}
		sets[i] = set
	}

	// Normalize day-of-week: 7 means Sunday, same as 0.
	dows := sets[4]
	if _, ok := dows[7]; ok {
		delete(dows, 7)
		dows[0] = struct{}{}
	}

	return &Schedule{
		minutes:  sets[0],
		hours:    sets[1],
		doms:     sets[2],
		months:   sets[3],
		dows:     dows,
		original: expr,
	}, nil
}

// parseField parses a single cron field: *, n, a-b, v1,v2,..., or
// base/step, where base is *, a-b, or n.
func parseField(field string, min, max int) (map[int]struct{}, error) {
	result := make(map[int]struct{})
	for _, part := range strings.Split(field, ",") {
		if part == "" {
			return nil, fmt.Errorf("empty list element")
		}
		base, step, hasStep := strings.Cut(part, "/")

		values, err := parseBase(base, min, max)
		if err != nil {
			return nil, err
		}

		if !hasStep {
			for _, v := range values {
				result[v] = struct{}{}
			}
			continue
		}

		n, err := strconv.Atoi(step)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("step must be a positive integer, got %q", step)
		}
		for i := 0; i < len(values); i += n {
			result[values[i]] = struct{}{}
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no values produced")
	}
	return result, nil
}

// parseBase parses the base of a field element (before any "/step"):
// *, a single value, or an inclusive a-b range. Returns the ordered set
// of values it denotes.
func parseBase(base string, min, max int) ([]int, error) {
	if base == "*" {
		values := make([]int, 0, max-min+1)
		for v := min; v <= max; v++ {
			values = append(values, v)
		}
		return values, nil
	}

	if lo, hi, ok := strings.Cut(base, "-"); ok {
		a, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q", lo)
		}
		b, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q", hi)
		}
		if a < min || b > max || a > b {
			return nil, fmt.Errorf("range %d-%d out of bounds [%d,%d]", a, b, min, max)
		}
		values := make([]int, 0, b-a+1)
		for v := a; v <= b; v++ {
			values = append(values, v)
		}
		return values, nil
	}

	n, err := strconv.Atoi(base)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", base)
	}
	if n < min || n > max {
		return nil, fmt.Errorf("value %d out of bounds [%d,%d]", n, min, max)
	}
	return []int{n}, nil
}

// Matches reports whether t matches the schedule. Day-of-month and
// day-of-week are OR'd together, mirroring widely deployed cron behavior.
func (s *Schedule) Matches(t time.Time) bool {
	_, hasMinute := s.minutes[t.Minute()]
	if !hasMinute {
		return false
	}
	_, hasHour := s.hours[t.Hour()]
	if !hasHour {
		return false
	}
	_, hasMonth := s.months[int(t.Month())]
	if !hasMonth {
		return false
	}
	_, domMatch := s.doms[t.Day()]
	_, dowMatch := s.dows[int(t.Weekday())]
	return domMatch || dowMatch
}

// searchBound is how far into the future NextOccurrence will search before
// giving up.
const searchBound = 4 * 365 * 24 * time.Hour

// NextOccurrence returns the smallest instant strictly greater than after,
// truncated to whole minutes, that matches the schedule. It fails with
// ErrNoNextOccurrence if no match exists within a four-year bound.
func (s *Schedule) NextOccurrence(after time.Time) (time.Time, error) {
	t := after.Truncate(time.Minute).Add(time.Minute)
	deadline := after.Add(searchBound)
	for !t.After(deadline) {
		if s.Matches(t) {
			return t, nil
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}, ErrNoNextOccurrence
}
