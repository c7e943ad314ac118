// Package policy turns a content category into concrete transform
// parameters: the maximum image dimension used by the resize step and the
// quality tier handed to the lossy, lossless, and WebP encoders.
//
// A Policy is built once from configuration and is read-only afterwards, so
// pipeline workers share a single value without locking.
package policy
