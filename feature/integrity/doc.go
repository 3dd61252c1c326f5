// Package integrity validates baseline and mod tables before they are merged.
//
// # Checks Provided
//
//   - Baselines: every registered table has a baseline in one of the
//     containers, and the baseline matches the table's layout.
//   - Mods: every mod's copy of a registered table matches the layout and can
//     be diffed against the baseline. The number of changed fields is reported.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs the baseline check.
//   - GET /integrity/baselines : Runs the baseline check.
//   - GET /integrity/mods : Runs the mod check.
package integrity
