// Package cron parses a 5-field cron expression into a [Schedule] that
// answers two questions: does a given instant match, and what is the next
// matching instant after a given instant.
//
// Fields are whitespace-separated: minute hour day-of-month month
// day-of-week. Each supports "*", a single value, an inclusive "a-b"
// range, a comma-separated union, and a "base/step" selection. Matching
// OR's day-of-month against day-of-week, mirroring widely deployed cron
// behavior.
//
// The recurring job loop (package processor) uses NextOccurrence to
// decide when a template should next materialize a job.
package cron
