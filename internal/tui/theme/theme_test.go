package theme

import "testing"

func TestGaugeColor(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, string(ColorGaugeLow)},
		{0.5, string(ColorGaugeLow)},
		{0.6, string(ColorGaugeMid)},
		{0.81, string(ColorGaugeHigh)},
		{1, string(ColorGaugeHigh)},
	}
	for _, tt := range tests {
		if got := string(GaugeColor(tt.pct)); got != tt.want {
			t.Errorf("GaugeColor(%v) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestCategoryColor(t *testing.T) {
	if CategoryColor("payment") != ColorPayment {
		t.Error("payment should use ColorPayment")
	}
	if CategoryColor("nonsense") != ColorDefault {
		t.Error("unknown category should use ColorDefault")
	}
}
