package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.log")

	logger, closer, err := Setup(Options{Level: log.InfoLevel, LogFile: path})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}

	logger.Info("queue initialized", "dir", "/tmp/downloads")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "queue initialized") {
		t.Errorf("log file missing entry:\n%s", data)
	}
}

func TestSetup_NoTargets(t *testing.T) {
	logger, closer, err := Setup(Options{Level: log.InfoLevel})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	defer closer.Close()

	// Must not panic with every target disabled.
	logger.Info("discarded")
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedback.log")

	big := make([]byte, maxLogSize+1)
	if err := os.WriteFile(path, big, 0644); err != nil {
		t.Fatal(err)
	}

	rotate(path)

	if _, err := os.Stat(path + ".old"); err != nil {
		t.Errorf("rotated file missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("oversized log still in place after rotate")
	}
}

func TestRotate_SmallFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedback.log")
	if err := os.WriteFile(path, []byte("small"), 0644); err != nil {
		t.Fatal(err)
	}

	rotate(path)

	if _, err := os.Stat(path); err != nil {
		t.Errorf("small log was rotated away: %v", err)
	}
}
