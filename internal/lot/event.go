package lot

// Kind is the discriminator sent by the rig in the "type" field.
type Kind string

const (
	KindSlotChange     Kind = "slot_change"
	KindSlotOccupied   Kind = "slot_occupied"
	KindSlotFreed      Kind = "slot_freed"
	KindVehicleEntry   Kind = "vehicle_entry"
	KindVehicleReentry Kind = "vehicle_reentry"
	KindEntryTime      Kind = "entry_time"
	KindExitTime       Kind = "exit_time"
	KindVehicleParked  Kind = "vehicle_parked"
	KindVehicleLeft    Kind = "vehicle_left_slot"
	KindVehicleExiting Kind = "vehicle_exiting"
	KindPaymentInfo    Kind = "payment_info"
	KindSlotsUpdate    Kind = "slots_update"
)

// Kinds lists every event kind the reducer understands.
var Kinds = []Kind{
	KindSlotChange, KindSlotOccupied, KindSlotFreed,
	KindVehicleEntry, KindVehicleReentry,
	KindEntryTime, KindExitTime,
	KindVehicleParked, KindVehicleLeft, KindVehicleExiting,
	KindPaymentInfo, KindSlotsUpdate,
}

// Known reports whether k is handled by the reducer.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Event is a single rig notification. ID is a slot number for slot events
// and a tag/card identifier for vehicle events.
type Event struct {
	Kind      Kind   `json:"type"`
	ID        string `json:"id"`
	Result    string `json:"result,omitempty"`
	Available *int   `json:"available,omitempty"`
}
