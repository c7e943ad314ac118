// Package preflight provides readiness checks for the filesystem paths that
// an optimization run depends on.
//
// These checks run in two contexts:
//   - The pipeline runner calls RunAll before archiving. If any check fails
//     the run stops before a single file is copied.
//   - The CLI "assetopt tools" command shows the same results next to the
//     external tool probe.
//
// Tool availability is not a preflight failure: missing encoders only
// shorten the fallback chain.
package preflight
