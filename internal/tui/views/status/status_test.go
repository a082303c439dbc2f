package status

import (
	"strings"
	"testing"
)

func TestView(t *testing.T) {
	tests := []struct {
		name     string
		model    Model
		contains []string
	}{
		{
			name:     "disconnected",
			model:    Model{Width: 80},
			contains: []string{"Connecting", "0/0 available"},
		},
		{
			name:     "connected with counts",
			model:    Model{Connected: true, Name: "Lot A", Available: 2, Total: 5, Seq: 7, Width: 100},
			contains: []string{"Connected", "Lot A", "2/5 available", "seq 7"},
		},
		{
			name:     "notice",
			model:    Model{Connected: true, Notice: "refresh failed", Width: 100},
			contains: []string{"refresh failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.model.View()
			for _, want := range tt.contains {
				if !strings.Contains(v, want) {
					t.Errorf("view missing %q:\n%s", want, v)
				}
			}
		})
	}
}

func TestSetCounts(t *testing.T) {
	m := New()
	m.SetCounts(3, 5)
	if m.Available != 3 || m.Total != 5 {
		t.Errorf("counts = %d/%d, want 3/5", m.Available, m.Total)
	}
}
