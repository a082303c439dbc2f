package lot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// AvailabilityPolicy decides which source of truth sets AvailableSlots.
type AvailabilityPolicy string

const (
	// PolicyOccupancy always derives availability from the slot sensors.
	// Counts asserted by the rig are only reported as warnings.
	PolicyOccupancy AvailabilityPolicy = "occupancy"
	// PolicyRig lets rig-asserted counts overwrite availability, matching
	// the behaviour dashboards built against the original rig expect.
	PolicyRig AvailabilityPolicy = "rig"
)

// Valid reports whether p is a known policy.
func (p AvailabilityPolicy) Valid() bool {
	return p == PolicyOccupancy || p == PolicyRig
}

// Outcome describes what a single Reduce call did.
type Outcome struct {
	Changed bool
	Entry   *LogEntry
	Warning string
}

type reducer struct {
	next   Snapshot
	ev     Event
	now    time.Time
	policy AvailabilityPolicy
	out    Outcome
}

// Reduce applies ev to snap and returns the next snapshot. snap is never
// modified. Every decode happens before the copy is touched, so a failed
// decode leaves the returned snapshot equal to the input.
func Reduce(snap Snapshot, ev Event, now time.Time, policy AvailabilityPolicy) (Snapshot, Outcome) {
	if !policy.Valid() {
		policy = PolicyOccupancy
	}
	r := &reducer{next: snap.Clone(), ev: ev, now: now, policy: policy}

	switch ev.Kind {
	case KindSlotChange:
		r.setSlot(strings.EqualFold(strings.TrimSpace(ev.Result), "OCCUPIED"))
	case KindSlotOccupied:
		r.setSlot(true)
	case KindSlotFreed:
		r.setSlot(false)
	case KindVehicleEntry:
		r.vehicleEntry()
	case KindVehicleReentry:
		r.vehicleReentry()
	case KindEntryTime, KindExitTime:
		r.timeInfo()
	case KindVehicleParked:
		r.vehicleParked()
	case KindVehicleLeft:
		r.vehicleLeftSlot()
	case KindVehicleExiting:
		r.vehicleExiting()
	case KindPaymentInfo:
		r.payment()
	case KindSlotsUpdate:
		r.slotsUpdate()
	default:
		r.warnf("unknown event kind %q", ev.Kind)
		return snap, r.out
	}

	if !r.out.Changed {
		return snap, r.out
	}
	return r.next, r.out
}

func (r *reducer) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if r.out.Warning != "" {
		r.out.Warning += "; " + msg
		return
	}
	r.out.Warning = msg
}

func (r *reducer) logf(cat Category, format string, args ...interface{}) {
	r.out.Entry = &LogEntry{
		Time:     r.now,
		Message:  fmt.Sprintf(format, args...),
		Category: cat,
	}
	r.out.Changed = true
}

func (r *reducer) vehicleID() (string, bool) {
	id := strings.TrimSpace(r.ev.ID)
	if id == "" {
		r.warnf("%s without vehicle id", r.ev.Kind)
		return "", false
	}
	return id, true
}

func (r *reducer) setSlot(occupied bool) {
	slot, err := strconv.Atoi(strings.TrimSpace(r.ev.ID))
	if err != nil || slot < 1 || slot > r.next.TotalSlots {
		r.warnf("%s: slot %q out of range 1..%d", r.ev.Kind, r.ev.ID, r.next.TotalSlots)
		return
	}

	value := 0
	if occupied {
		value = 1
	}
	r.next.Slots[slot-1] = value
	r.next.recomputeAvailable()

	switch r.ev.Kind {
	case KindSlotOccupied:
		r.logf(CategorySlot, "Slot %d occupied", slot)
	case KindSlotFreed:
		r.logf(CategorySlot, "Slot %d is free", slot)
	default:
		label := "FREE"
		if occupied {
			label = "OCCUPIED"
		}
		r.logf(CategorySlot, "Slot %d -> %s", slot, label)
	}
}

// applyHint handles the optional available count carried by entry and
// payment events.
func (r *reducer) applyHint() {
	if r.ev.Available == nil {
		return
	}
	r.assertAvailable(*r.ev.Available, "hint")
}

func (r *reducer) assertAvailable(n int, source string) {
	switch r.policy {
	case PolicyRig:
		// The original rig sends 0 when it has no count to report.
		if n <= 0 && source == "hint" {
			return
		}
		v := clamp(n, 0, r.next.TotalSlots)
		if v != r.next.AvailableSlots {
			r.next.AvailableSlots = v
			r.out.Changed = true
		}
	default:
		if n != r.next.AvailableSlots {
			r.warnf("availability %s %d ignored, sensors report %d", source, n, r.next.AvailableSlots)
		}
	}
}

func (r *reducer) vehicleEntry() {
	id, ok := r.vehicleID()
	if !ok {
		return
	}
	if r.next.findParked(id) < 0 {
		r.next.Vehicles = append(r.next.Vehicles, VehicleSession{
			ID:        id,
			Status:    Parked,
			EntryTime: r.now,
		})
	}
	if r.ev.Result != "" {
		r.logf(CategoryEntry, "ENTRY: vehicle %s entered the lot - %s", id, r.ev.Result)
	} else {
		r.logf(CategoryEntry, "ENTRY: vehicle %s entered the lot", id)
	}
	r.applyHint()
}

func (r *reducer) vehicleReentry() {
	id, ok := r.vehicleID()
	if !ok {
		return
	}
	if idx := r.next.findLatest(id); idx >= 0 {
		v := &r.next.Vehicles[idx]
		v.Status = Parked
		v.EntryTime = r.now
		v.ExitTime = null.Time{}
		v.Slot = 0
		v.Fee = 0
		v.Duration = ""
	} else {
		r.next.Vehicles = append(r.next.Vehicles, VehicleSession{
			ID:        id,
			Status:    Parked,
			EntryTime: r.now,
		})
	}
	r.logf(CategoryEntry, "RE-ENTRY: vehicle %s returned to the lot", id)
	r.applyHint()
}

func (r *reducer) timeInfo() {
	token, err := DecodeTime(r.ev.Kind, r.ev.Result)
	if err != nil {
		r.warnf("%v", err)
		return
	}
	if r.ev.Kind == KindEntryTime {
		r.logf(CategoryTime, "Vehicle %s entered at %s", r.ev.ID, token)
		return
	}
	r.logf(CategoryTime, "Vehicle %s left at %s", r.ev.ID, token)
}

func (r *reducer) vehicleParked() {
	id, ok := r.vehicleID()
	if !ok {
		return
	}
	slot, err := DecodeSlot(r.ev.Result)
	if err != nil {
		r.warnf("%v", err)
		return
	}
	if slot < 1 || slot > r.next.TotalSlots {
		r.warnf("vehicle_parked: slot %d out of range 1..%d", slot, r.next.TotalSlots)
		return
	}
	idx := r.next.findParked(id)
	if idx < 0 {
		r.warnf("vehicle_parked: no parked session for %s", id)
		return
	}
	r.next.Vehicles[idx].Slot = slot
	r.logf(CategoryParking, "PARKED: vehicle %s in slot %d", id, slot)
}

func (r *reducer) vehicleLeftSlot() {
	id, ok := r.vehicleID()
	if !ok {
		return
	}
	idx := r.next.findParked(id)
	if idx < 0 {
		r.warnf("vehicle_left_slot: no parked session for %s", id)
		return
	}
	prev := r.next.Vehicles[idx].Slot
	r.next.Vehicles[idx].Slot = 0
	if prev > 0 {
		r.logf(CategoryMovement, "MOVING: vehicle %s left slot %d", id, prev)
		return
	}
	r.logf(CategoryMovement, "MOVING: vehicle %s left its slot", id)
}

func (r *reducer) vehicleExiting() {
	r.logf(CategoryExiting, "EXIT: vehicle %s is leaving the lot", r.ev.ID)
}

func (r *reducer) payment() {
	defer r.applyHint()

	id, ok := r.vehicleID()
	if !ok {
		return
	}
	idx := r.next.findParked(id)
	if idx < 0 {
		r.warnf("payment_info: no parked session for %s", id)
		return
	}
	p, err := DecodePayment(r.ev.Result)
	if err != nil {
		r.warnf("%v", err)
		return
	}

	v := &r.next.Vehicles[idx]
	v.Status = Exited
	v.ExitTime = null.TimeFrom(r.now)
	v.Fee = p.Fee
	v.Duration = p.Duration
	r.next.Revenue += p.Fee
	r.next.Transactions++

	fee := strconv.FormatInt(p.Fee, 10)
	if cur := strings.TrimSpace(r.next.Config.Currency); cur != "" {
		fee += " " + cur
	}
	r.logf(CategoryPayment, "PAYMENT: vehicle %s - %s - fee %s", id, p.Duration, fee)
}

func (r *reducer) slotsUpdate() {
	n, err := DecodeAvailable(r.ev.Result)
	if err != nil {
		r.warnf("%v", err)
		return
	}
	r.assertAvailable(n, "update")
}
