// Package optimize runs one asset through the transform state machine:
//
//	PENDING -> RESIZING -> LOSSY_COMPRESS_ATTEMPT -> LOSSLESS_COMPRESS_ATTEMPT -> COPY_THROUGH -> DONE
//
// RESIZING runs only for images in the resize variant whose target size
// differs from the source. A successful lossy step jumps straight to DONE; a
// failed or unavailable step falls through to the next one, and copy-through
// always succeeds for a readable source. Every intermediate file lives beside
// the destination and the final path is only ever written by a rename, after
// the BackupVerifier has confirmed the original is safely archived.
package optimize
