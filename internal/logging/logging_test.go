package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_WritesBothSinks(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	closer, err := Setup(Options{Verbose: true, Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer func() {
		closer.Close()
		log.Logger = zerolog.New(os.Stderr)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	log.Debug().Str("req", "req-1").Msg("forecast computed")

	if !strings.Contains(console.String(), "forecast computed") {
		t.Errorf("expected console output, got %q", console.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), `"req":"req-1"`) {
		t.Errorf("expected JSON log line, got %q", data)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	closer, err := Setup(Options{Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	log.Debug().Msg("hidden")
	if strings.Contains(console.String(), "hidden") {
		t.Error("debug output should be filtered without verbose")
	}
}

func TestSetup_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Setup(Options{Dir: filepath.Join(file, "logs")}); err == nil {
		t.Error("expected an error for a log dir below a regular file")
	}
}
