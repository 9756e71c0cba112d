// Package lockfile implements cross-process mutual exclusion on a shared
// filesystem using exclusive file creation as the primitive.
//
// Two granularities are used together:
//   - a Claim (sidecar lock beside a candidate file) prevents two runs from
//     processing the same file;
//   - a Slot (directory-scoped lock) serializes the short commit section in
//     which destination listings are consulted and files are moved.
//
// Acquisition order is always Claim before Slot. A lock left behind by a
// crashed process is not detected or broken: contention and staleness are
// indistinguishable, and a stale lock simply causes the file to be skipped
// until an operator removes the marker.
package lockfile
