// Package logging builds the slog loggers used across the pipeline and
// provides typed attribute helpers plus retention cleanup for run logs.
//
// Console output is a compact human format when attached to a terminal;
// the json format is intended for log shippers. Every run tags its records
// with a run_id attribute so overlapping cron invocations can be told apart.
package logging
