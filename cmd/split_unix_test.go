//go:build unix

package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "%CODEC%", "codec_type": "video", "width": 1280, "height": 720, "r_frame_rate": "25/1"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2}
  ],
  "format": {"format_name": "matroska,webm", "duration": "1500.000000", "size": "104857600", "bit_rate": "559240"}
}`

type fakeTools struct {
	dir     string
	ffmpeg  string
	ffprobe string
	calls   string
}

// newFakeTools writes shell scripts standing in for ffprobe and ffmpeg. The
// fake ffmpeg records its arguments and writes a small file at its last
// argument.
func newFakeTools(t *testing.T, codec string) fakeTools {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	ft := fakeTools{
		dir:     dir,
		ffmpeg:  filepath.Join(dir, "ffmpeg"),
		ffprobe: filepath.Join(dir, "ffprobe"),
		calls:   filepath.Join(dir, "calls.log"),
	}

	probe := "#!/bin/sh\ncat <<'JSON'\n" + strings.ReplaceAll(probeJSON, "%CODEC%", codec) + "\nJSON\n"
	require.NoError(t, os.WriteFile(ft.ffprobe, []byte(probe), 0o755))

	encoder := `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version fake"
  exit 0
fi
echo "$@" >> '` + ft.calls + `'
for a; do out="$a"; done
printf 'clip' > "$out"
`
	require.NoError(t, os.WriteFile(ft.ffmpeg, []byte(encoder), 0o755))

	return ft
}

func (ft fakeTools) args() []string {
	return []string{"--ffmpeg", ft.ffmpeg, "--ffprobe", ft.ffprobe}
}

func (ft fakeTools) invocations(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(ft.calls)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func writeInput(t *testing.T) string {
	t.Helper()
	input := filepath.Join(t.TempDir(), "lecture.mkv")
	require.NoError(t, os.WriteFile(input, []byte("source"), 0o644))
	return input
}

func TestSplit_EndToEnd(t *testing.T) {
	ft := newFakeTools(t, "h264")
	input := writeInput(t)
	outDir := filepath.Join(t.TempDir(), "clips")
	historyDB := filepath.Join(t.TempDir(), "history.db")
	metricsFile := filepath.Join(t.TempDir(), "splitter.prom")

	args := append([]string{"split", input, "-m", "10", "-o", outDir, "--yes",
		"--history-db", historyDB, "--metrics-file", metricsFile}, ft.args()...)
	stdout, _, err := runCLI(t, "", args...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Codec      : H264 / AAC")
	assert.Contains(t, stdout, "Per segment : 10 min  ->  3 files")
	assert.Contains(t, stdout, "Conversion  : None (stream copy)")
	assert.Contains(t, stdout, "Splitting into 3 segments...")
	assert.Contains(t, stdout, "[1/3] 00:00 -> 00:10 | lecture_00-00 - 00-10.mp4")
	assert.Contains(t, stdout, "[3/3] Done")
	assert.Contains(t, stdout, "All done! Files saved to:")
	assert.Contains(t, stdout, "Clips       : 3 of 3")

	for _, name := range []string{
		"lecture_00-00 - 00-10.mp4",
		"lecture_00-10 - 00-20.mp4",
		"lecture_00-20 - 00-25.mp4",
		"README.txt",
	} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	calls := ft.invocations(t)
	require.Len(t, calls, 3)
	assert.Contains(t, calls[0], "-ss 00:00:00 -i "+input+" -t 600 -c:v copy -c:a copy")
	assert.Contains(t, calls[2], "-ss 00:20:00 -i "+input+" -t 300 -c:v copy -c:a copy")

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `splitter_segments_total{status="done"} 3`)
	assert.Contains(t, string(metrics), `splitter_batches_total{outcome="completed"} 1`)

	// The run is now listed by the history command
	stdout, _, err = runCLI(t, "", "history", "--history-db", historyDB)
	require.NoError(t, err)
	assert.Contains(t, stdout, "completed")
	assert.Contains(t, stdout, "lecture.mkv")
}

func TestSplit_ConvertPromptAccepted(t *testing.T) {
	ft := newFakeTools(t, "av1")
	input := writeInput(t)
	outDir := filepath.Join(t.TempDir(), "clips")

	// Answers: convert yes, start yes
	args := append([]string{"split", input, "-m", "10", "-o", outDir}, ft.args()...)
	stdout, _, err := runCLI(t, "y\ny\n", args...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "WARNING: Video uses AV1 encoding.")
	assert.Contains(t, stdout, "Video will be converted to H.264.")
	assert.Contains(t, stdout, "Conversion  : AV1 -> H.264 (libx264)")

	calls := ft.invocations(t)
	require.Len(t, calls, 3)
	for _, call := range calls {
		assert.Contains(t, call, "-c:v libx264 -preset medium -crf 23 -c:a aac -b:a 192k")
	}
}

func TestSplit_ConfirmationDeclined(t *testing.T) {
	ft := newFakeTools(t, "h264")
	input := writeInput(t)
	outDir := filepath.Join(t.TempDir(), "clips")

	args := append([]string{"split", input, "-o", outDir}, ft.args()...)
	stdout, _, err := runCLI(t, "n\n", args...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Start processing? (y/n):")
	assert.Contains(t, stdout, "Cancelled.")
	assert.Empty(t, ft.invocations(t))
	assert.NoDirExists(t, outDir)
}

func TestSplit_DefaultOutputDir(t *testing.T) {
	ft := newFakeTools(t, "h264")
	input := writeInput(t)

	args := append([]string{"split", input, "-m", "12.5", "--yes"}, ft.args()...)
	_, _, err := runCLI(t, "", args...)
	require.NoError(t, err)

	outDir := filepath.Join(filepath.Dir(input), "output_split")
	assert.FileExists(t, filepath.Join(outDir, "lecture_00-00 - 00-12.mp4"))
	assert.FileExists(t, filepath.Join(outDir, "lecture_00-12 - 00-25.mp4"))
	assert.FileExists(t, filepath.Join(outDir, "README.txt"))
}

func TestSplit_DryRun(t *testing.T) {
	ft := newFakeTools(t, "av1")
	input := writeInput(t)
	outDir := filepath.Join(t.TempDir(), "clips")

	args := append([]string{"split", input, "-m", "10", "-o", outDir, "--dry-run", "--convert", "always"}, ft.args()...)
	stdout, _, err := runCLI(t, "", args...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "[1/3] "+ft.ffmpeg+" -y -hide_banner -nostdin -ss 00:00:00")
	assert.Contains(t, stdout, "-c:v libx264")
	assert.Contains(t, stdout, "No files were written.")
	assert.Empty(t, ft.invocations(t))
	assert.NoDirExists(t, outDir)
}

func TestSplit_SegmentLongerThanVideo(t *testing.T) {
	ft := newFakeTools(t, "h264")
	input := writeInput(t)

	args := append([]string{"split", input, "-m", "30", "--yes"}, ft.args()...)
	_, _, err := runCLI(t, "", args...)
	require.Error(t, err)
	assert.Empty(t, ft.invocations(t))
}

func TestSplit_MissingEncoder(t *testing.T) {
	ft := newFakeTools(t, "h264")
	input := writeInput(t)

	args := []string{"split", input, "--yes", "--ffprobe", ft.ffprobe, "--ffmpeg", filepath.Join(ft.dir, "no-such-ffmpeg")}
	_, _, err := runCLI(t, "", args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found. Install ffmpeg")
}

func TestProbeCommand(t *testing.T) {
	ft := newFakeTools(t, "av1")
	input := writeInput(t)

	stdout, _, err := runCLI(t, "", "probe", input, "--ffprobe", ft.ffprobe)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Resolution : 1280x720 @ 25 fps")
	assert.Contains(t, stdout, "Duration   : 00:25:00  (25.0 min)")
	assert.Contains(t, stdout, "Bitrate    : 559 kbps")
	assert.Contains(t, stdout, "flagged for conversion")

	stdout, _, err = runCLI(t, "", "probe", input, "--ffprobe", ft.ffprobe, "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"video_codec": "av1"`)
	assert.Contains(t, stdout, `"needs_conversion": true`)
}

func TestPlanCommand(t *testing.T) {
	ft := newFakeTools(t, "h264")
	input := writeInput(t)

	stdout, _, err := runCLI(t, "", "plan", input, "--ffprobe", ft.ffprobe, "-m", "10")
	require.NoError(t, err)
	assert.Contains(t, stdout, "lecture_00-00 - 00-10.mp4")
	assert.Contains(t, stdout, "lecture_00-20 - 00-25.mp4")
	assert.Contains(t, stdout, "3 segments covering 00:25:00")
	assert.Empty(t, ft.invocations(t))
}
