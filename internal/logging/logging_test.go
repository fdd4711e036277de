package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Format: "json"}, &buf)
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
	log.WithField("iterations", 10).Info("batch done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "batch done" || entry["iterations"] != float64(10) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "chatty"}, &buf)
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
	log.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line written at info level")
	}
}
