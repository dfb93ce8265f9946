package logging

import (
	"bytes"
	"testing"

	"github.com/labstack/gommon/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Lvl
		wantErr bool
	}{
		{"debug", log.DEBUG, false},
		{"INFO", log.INFO, false},
		{"", log.INFO, false},
		{"warn", log.WARN, false},
		{"error", log.ERROR, false},
		{"off", log.OFF, false},
		{"loud", log.INFO, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestForSharesLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	l := For("test")
	if For("test") != l {
		t.Fatal("For should return the same logger per component")
	}

	if err := SetLevel("error"); err != nil {
		t.Fatal(err)
	}
	l.Infof("hidden")
	if buf.Len() != 0 {
		t.Errorf("info line written at error level: %q", buf.String())
	}

	if err := SetLevel("info"); err != nil {
		t.Fatal(err)
	}
	l.Infof("shown %d", 1)
	if !bytes.Contains(buf.Bytes(), []byte("shown 1")) {
		t.Errorf("expected info line, got %q", buf.String())
	}
}
