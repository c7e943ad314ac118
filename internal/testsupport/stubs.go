package testsupport

// Stub scripts answer the version flags used by the capability probe and
// otherwise emulate the real tool closely enough for the orchestrator: they
// read the input named on the command line and write a smaller output where
// the real tool would.
const versionPrelude = `#!/bin/sh
if [ $# -eq 1 ]; then
  case "$1" in
    -version|--version|-v) echo "stub 1.0"; exit 0 ;;
  esac
fi
`

// StubHalvingPngquant writes the first half of the input to --output.
const StubHalvingPngquant = versionPrelude + `out=""; prev=""; last=""
for a in "$@"; do
  if [ "$prev" = "--output" ]; then out="$a"; fi
  prev="$a"; last="$a"
done
size=$(wc -c < "$last")
head -c $((size / 2)) "$last" > "$out"
`

// StubNoopOptipng leaves the file untouched, which makes repeated runs
// byte-identical.
const StubNoopOptipng = versionPrelude + "exit 0\n"

// StubHalvingFFmpeg writes the first half of the -i input to the last
// argument.
const StubHalvingFFmpeg = versionPrelude + `in=""; prev=""; last=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"; last="$a"
done
size=$(wc -c < "$in")
head -c $((size / 2)) "$in" > "$last"
`

// StubHalvingCwebp writes the first half of the input to the -o target.
const StubHalvingCwebp = versionPrelude + `in=""; out=""; prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  case "$a" in
    -*) ;;
    *) if [ "$prev" != "-q" ] && [ "$prev" != "-alpha_q" ] && [ "$prev" != "-m" ] && [ "$prev" != "-o" ]; then in="$a"; fi ;;
  esac
  prev="$a"
done
size=$(wc -c < "$in")
head -c $((size / 2)) "$in" > "$out"
`

// StubFailing exits non-zero for every invocation except the version probe.
const StubFailing = versionPrelude + "echo 'stub failure' >&2\nexit 1\n"

// StubSilentNoOutput exits zero without writing anything.
const StubSilentNoOutput = versionPrelude + "exit 0\n"

// StubSleeping blocks long enough to trip short timeouts.
const StubSleeping = versionPrelude + "exec sleep 5\n"

// StubFFprobe prints a fixed stereo 44.1 kHz stream description.
const StubFFprobe = versionPrelude + `cat <<'JSON'
{"streams":[{"index":0,"codec_name":"pcm_s16le","codec_type":"audio","sample_rate":"44100","channels":2,"duration":"0.500000"}],
 "format":{"format_name":"wav","duration":"0.500000","size":"88244"}}
JSON
`

// DefaultStubs returns a working stub for every tool.
func DefaultStubs() map[string]string {
	return map[string]string{
		"pngquant": StubHalvingPngquant,
		"optipng":  StubNoopOptipng,
		"ffmpeg":   StubHalvingFFmpeg,
		"ffprobe":  StubFFprobe,
		"cwebp":    StubHalvingCwebp,
	}
}
