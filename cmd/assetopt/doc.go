// Package main hosts the assetopt CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, builds the logger and
// run-history store, and hands the work to internal/pipeline. Commands only
// render results: tables for terminals and JSON with --json.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
