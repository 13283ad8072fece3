package fanout

import (
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"copy", ModeCopy, false},
		{"scatter", ModeScatter, false},
		{"", "", true},
		{"broadcast", "", true},
		{"Copy", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSinkDrained(t *testing.T) {
	s := &Sink{Name: "out", FD: 3, Active: true}

	if !s.Drained() {
		t.Error("new sink should be drained")
	}

	s.PosToWrite = 100
	if s.Drained() {
		t.Error("sink with pending bytes should not be drained")
	}
	if s.Pending() != 100 {
		t.Errorf("Pending() = %d, want 100", s.Pending())
	}

	s.PosWritten = 100
	if !s.Drained() {
		t.Error("sink should be drained after writing its window")
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
}

func TestSinkString(t *testing.T) {
	s := &Sink{Name: "out.log", FD: 5, PosWritten: 10, PosToWrite: 20, Active: true}

	got := s.String()
	for _, want := range []string{"out.log", "fd=5", "written=10", "to_write=20", "active=true"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}
