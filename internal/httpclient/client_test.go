package httpclient

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"300", 300 * time.Second, true},
		{"90s", 90 * time.Second, true},
		{"1h30m", 90 * time.Minute, true},
		{"soon", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDuration(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDuration(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig_Timeout(t *testing.T) {
	t.Setenv(TimeoutEnv, "")
	if got := DefaultConfig().Timeout; got != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultTimeout)
	}

	t.Setenv(TimeoutEnv, "45")
	if got := DefaultConfig().Timeout; got != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", got)
	}

	t.Setenv(TimeoutEnv, "garbage")
	if got := DefaultConfig().Timeout; got != DefaultTimeout {
		t.Errorf("Timeout with invalid env = %v, want %v", got, DefaultTimeout)
	}
}

func TestNewWithTimeout(t *testing.T) {
	t.Setenv(TimeoutEnv, "")
	if got := NewWithTimeout(5 * time.Second).Timeout; got != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got)
	}
	if got := NewWithTimeout(0).Timeout; got != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultTimeout)
	}
}
