package procstat

import (
	"os"
	"testing"
)

func TestSampleCurrentProcess(t *testing.T) {
	s, err := NewSampler()
	if err != nil {
		t.Fatalf("NewSampler() error: %v", err)
	}

	st := s.Sample()
	if st.PID != int32(os.Getpid()) {
		t.Errorf("PID = %d, want %d", st.PID, os.Getpid())
	}
	if st.Goroutines < 1 {
		t.Errorf("Goroutines = %d, want >= 1", st.Goroutines)
	}
	if st.Uptime < 0 {
		t.Errorf("Uptime = %f, want >= 0", st.Uptime)
	}
	if st.CPUPercent < 0 {
		t.Errorf("CPUPercent = %f, want >= 0", st.CPUPercent)
	}

	// A second sample measures CPU against the first.
	_ = s.Sample()
}
