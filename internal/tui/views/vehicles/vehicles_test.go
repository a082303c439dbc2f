package vehicles

import (
	"strings"
	"testing"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"gopkg.in/guregu/null.v4"
)

func TestSetVehiclesNewestFirst(t *testing.T) {
	m := New()
	m.SetVehicles([]lot.VehicleSession{{ID: "A"}, {ID: "B"}, {ID: "C"}})
	if m.vehicles[0].ID != "C" || m.vehicles[2].ID != "A" {
		t.Errorf("order = %v", m.vehicles)
	}
}

func TestViewEmpty(t *testing.T) {
	if !strings.Contains(New().View(), "No vehicles") {
		t.Error("empty table should show placeholder")
	}
}

func TestView(t *testing.T) {
	now := time.Now()
	m := New()
	m.Width = 100
	m.SetVehicles([]lot.VehicleSession{
		{ID: "CARD01", Status: lot.Exited, EntryTime: now, ExitTime: null.TimeFrom(now), Fee: 15, Duration: "1h30m"},
		{ID: "CARD02", Status: lot.Parked, EntryTime: now, Slot: 3},
	})
	v := m.View()
	for _, want := range []string{"CARD01", "CARD02", "exited", "parked", "1h30m", "15"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
	if strings.Index(v, "CARD02") > strings.Index(v, "CARD01") {
		t.Error("newest vehicle should be listed first")
	}
}

func TestViewMaxRows(t *testing.T) {
	m := New()
	m.MaxRows = 2
	m.SetVehicles([]lot.VehicleSession{{ID: "A1"}, {ID: "B2"}, {ID: "C3"}, {ID: "D4"}})
	v := m.View()
	if strings.Contains(v, "A1") || !strings.Contains(v, "D4") {
		t.Errorf("expected only the newest rows:\n%s", v)
	}
	if !strings.Contains(v, "2 more") {
		t.Errorf("expected hidden row count:\n%s", v)
	}
}
