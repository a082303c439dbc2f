package lot

import (
	"errors"
	"testing"
)

func TestDecodePayment(t *testing.T) {
	tests := []struct {
		in      string
		fee     int64
		dur     string
		minutes int
		wantErr bool
	}{
		{"FEE_5000_TIME_2h", 5000, "2h", 120, false},
		{"FEE_0_TIME_45", 0, "45", 45, false},
		{" FEE_12_TIME_1h30m ", 12, "1h30m", 90, false},
		{"FEE_7_TIME_00:32:10", 7, "00:32:10", 0, false},
		{"FEE_abc_TIME_2h", 0, "", 0, true},
		{"FEE_10", 0, "", 0, true},
		{"", 0, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := DecodePayment(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrDecode) {
					t.Fatalf("DecodePayment(%q) error = %v, want ErrDecode", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePayment(%q) error: %v", tt.in, err)
			}
			if p.Fee != tt.fee || p.Duration != tt.dur || p.DurationMinutes != tt.minutes {
				t.Errorf("DecodePayment(%q) = %+v, want fee=%d dur=%q min=%d", tt.in, p, tt.fee, tt.dur, tt.minutes)
			}
		})
	}
}

func TestDecodeTime(t *testing.T) {
	tests := []struct {
		kind    Kind
		in      string
		want    string
		wantErr bool
	}{
		{KindEntryTime, "ENTRY_TIME_08:15", "08:15", false},
		{KindExitTime, "EXIT_TIME_17:40:02", "17:40:02", false},
		{KindEntryTime, "EXIT_TIME_17:40", "", true},
		{KindExitTime, "ENTRY_TIME_08:15", "", true},
		{KindEntryTime, "08:15", "", true},
	}
	for _, tt := range tests {
		got, err := DecodeTime(tt.kind, tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrDecode) {
				t.Errorf("DecodeTime(%s, %q) error = %v, want ErrDecode", tt.kind, tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("DecodeTime(%s, %q) = %q, %v; want %q", tt.kind, tt.in, got, err, tt.want)
		}
	}
}

func TestDecodeSlot(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"SLOT_3", 3, false},
		{"4", 4, false},
		{"SLOT_", 0, true},
		{"slot_3", 0, true},
		{"A3", 0, true},
	}
	for _, tt := range tests {
		got, err := DecodeSlot(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("DecodeSlot(%q) = %d, %v; want %d (err %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestDecodeAvailable(t *testing.T) {
	if n, err := DecodeAvailable("AVAILABLE_2"); err != nil || n != 2 {
		t.Errorf("DecodeAvailable(AVAILABLE_2) = %d, %v", n, err)
	}
	if _, err := DecodeAvailable("AVAILABLE_-1"); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeAvailable(AVAILABLE_-1) error = %v, want ErrDecode", err)
	}
	if _, err := DecodeAvailable("2"); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeAvailable(2) error = %v, want ErrDecode", err)
	}
}
