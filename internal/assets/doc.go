// Package assets finds the files a run will process and inspects each one
// into a Record: size, media kind, image dimensions or audio stream
// parameters, and the content category derived from its name.
package assets
