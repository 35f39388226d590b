package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	yamlContent := `
input: "test.mp4"
output_dir: "clips"
segment_minutes: 15
convert: "never"
convert_codecs: ["av1", "hevc"]
tools:
  ffmpeg: "/usr/local/bin/ffmpeg"
video:
  codec: "libx265"
  quality: 28
  preset: "fast"
execution:
  poll_interval: 100ms
  grace_period: 3s
log_level: debug
history_db: "history.db"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Input != "test.mp4" {
		t.Errorf("Expected input 'test.mp4', got '%s'", cfg.Input)
	}
	if cfg.OutputDir != "clips" {
		t.Errorf("Expected output dir 'clips', got '%s'", cfg.OutputDir)
	}
	if cfg.SegmentMinutes != 15 {
		t.Errorf("Expected segment minutes 15, got %v", cfg.SegmentMinutes)
	}
	if cfg.Convert != ConvertNever {
		t.Errorf("Expected convert 'never', got '%s'", cfg.Convert)
	}
	if strings.Join(cfg.ConvertCodecs, ",") != "av1,hevc" {
		t.Errorf("Expected convert codecs [av1 hevc], got %v", cfg.ConvertCodecs)
	}
	if cfg.Tools.FFmpeg != "/usr/local/bin/ffmpeg" {
		t.Errorf("Expected ffmpeg path from file, got '%s'", cfg.Tools.FFmpeg)
	}
	if cfg.Video.Codec != "libx265" || cfg.Video.Quality != 28 || cfg.Video.Preset != "fast" {
		t.Errorf("Unexpected video config: %+v", cfg.Video)
	}
	if cfg.Execution.PollInterval != 100*time.Millisecond {
		t.Errorf("Expected poll interval 100ms, got %s", cfg.Execution.PollInterval)
	}
	if cfg.Execution.GracePeriod != 3*time.Second {
		t.Errorf("Expected grace period 3s, got %s", cfg.Execution.GracePeriod)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.HistoryDB != "history.db" {
		t.Errorf("Expected history db 'history.db', got '%s'", cfg.HistoryDB)
	}
}

func TestLoadConfigFile_KeepsDefaultsForMissingKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(configPath, []byte("segment_minutes: 5\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.SegmentMinutes != 5 {
		t.Errorf("Expected segment minutes 5, got %v", cfg.SegmentMinutes)
	}
	if cfg.Tools.FFprobe != "ffprobe" {
		t.Errorf("Expected default ffprobe, got '%s'", cfg.Tools.FFprobe)
	}
	if cfg.Audio.Bitrate != "192k" {
		t.Errorf("Expected default audio bitrate, got '%s'", cfg.Audio.Bitrate)
	}
}

func TestLoadConfigFile_NotFound(t *testing.T) {
	_, err := LoadConfigFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfigFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
segment_minutes: [not a number
video: {
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadConfigFile(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfigFile_InvalidDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("execution:\n  poll_interval: soon\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadConfigFile(configPath); err == nil {
		t.Error("Expected error for unparsable duration")
	}
}

func TestSaveConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "saved.yaml")

	cfg := DefaultConfig()
	cfg.SegmentMinutes = 20
	cfg.Convert = ConvertAlways
	cfg.Execution.GracePeriod = 8 * time.Second

	if err := SaveConfigFile(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.SegmentMinutes != cfg.SegmentMinutes {
		t.Errorf("Segment minutes mismatch: expected %v, got %v", cfg.SegmentMinutes, loaded.SegmentMinutes)
	}
	if loaded.Convert != cfg.Convert {
		t.Errorf("Convert mismatch: expected %s, got %s", cfg.Convert, loaded.Convert)
	}
	if loaded.Execution.GracePeriod != cfg.Execution.GracePeriod {
		t.Errorf("Grace period mismatch: expected %s, got %s", cfg.Execution.GracePeriod, loaded.Execution.GracePeriod)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	chdir(t, dir)

	if path := FindConfigFile(); path != "" && !strings.HasPrefix(path, "/etc/") {
		t.Errorf("Expected no config in an empty directory, got %q", path)
	}

	homeConfig := filepath.Join(dir, ".splitter", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(homeConfig), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(homeConfig, []byte("segment_minutes: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if path := FindConfigFile(); path != homeConfig {
		t.Errorf("Expected %q, got %q", homeConfig, path)
	}

	// The working directory wins over HOME
	if err := os.WriteFile(filepath.Join(dir, "splitter.yml"), []byte("segment_minutes: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if path := FindConfigFile(); path != "./splitter.yml" {
		t.Errorf("Expected ./splitter.yml, got %q", path)
	}
}
