package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel("info")

	SetLevel("warn")
	Info("hidden")
	Warnf("shown %d", 1)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown 1") {
		t.Fatalf("warn not logged: %s", buf.String())
	}

	SetLevel("debug")
	Debugf("details %s", "here")
	if !strings.Contains(buf.String(), "details here") {
		t.Fatalf("debug not logged: %s", buf.String())
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	defer SetLevel("info")
	SetLevel("loud")
	if Level() != "info" {
		t.Fatalf("level=%q want info", Level())
	}
}

func TestStepFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel("info")
	Step("clean", "raw.csv", "clean.csv")
	out := buf.String()
	for _, want := range []string{"step=clean", "in=raw.csv", "out=clean.csv"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestPrinterLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel("info")

	SetLevel("info")
	Printer{}.Printf("OK   %s\n", "00001_create_insurance.sql")
	if buf.Len() != 0 {
		t.Fatalf("printf logged above debug: %s", buf.String())
	}
	SetLevel("debug")
	Printer{}.Printf("OK   %s\n", "00001_create_insurance.sql")
	if !strings.Contains(buf.String(), "00001_create_insurance.sql") {
		t.Fatalf("printf not logged: %s", buf.String())
	}
}
