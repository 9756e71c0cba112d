// Package naming derives canonical output names for media files: episode
// and release-version extraction from messy filenames, resolution/codec
// token rewriting, movie title and year parsing, filesystem-safe
// sanitization, and destination version-conflict resolution.
//
// Episode extraction uses an ordered pattern table; the order is a
// deliberate tie-break policy, not incidental. Change it only together with
// the table tests that pin the priority.
package naming
