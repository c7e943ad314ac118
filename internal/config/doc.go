// Package config loads, normalizes, and validates assetopt configuration.
//
// Configuration is TOML decoded on top of Default(). After decoding, paths are
// expanded to absolute form, per-category quality overrides inherit unset
// fields from the built-in tiers, and Validate rejects values the pipeline
// cannot honour. The resulting *Config is treated as read-only by every other
// package.
package config
