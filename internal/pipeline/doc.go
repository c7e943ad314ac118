// Package pipeline runs one optimization pass over the assets directory.
//
// A run discovers and inspects assets, probes the external tools, archives
// every original, then pushes each asset through the orchestrator once per
// enabled output variant. The archive is a barrier: no worker starts until
// the whole batch is backed up, and a backup failure ends the run without a
// report. Every other per-asset failure is recorded as a skip so the run
// still ends with a report and a history row.
package pipeline
