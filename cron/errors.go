package cron

import "errors"

var (
	// ErrInvalidCronExpression is returned by Parse for any malformed
	// expression: blank input, wrong field count, unparsable integers,
	// out-of-range values, inverted ranges, non-positive steps, or a
	// malformed step base.
	ErrInvalidCronExpression = errors.New("cron: invalid expression")

	// ErrNoNextOccurrence is returned by Schedule.NextOccurrence when the
	// search exhausts its four-year bound without finding a match.
	ErrNoNextOccurrence = errors.New("cron: no next occurrence within search bound")
)
