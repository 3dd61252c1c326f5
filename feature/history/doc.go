// Package history stores merge pass reports in the database and serves them
// over HTTP.
//
// Each pass is one row in merge_passes with one merge_units row per table.
// The Recorder plugs into the merge orchestrator and keeps only the newest
// passes.
package history
