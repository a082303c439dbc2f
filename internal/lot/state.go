package lot

import (
	"encoding/json"
	"time"

	"gopkg.in/guregu/null.v4"
)

type Status int

const (
	Parked Status = iota
	Exited
)

var statusNames = map[Status]string{
	Parked: "parked",
	Exited: "exited",
}

var statusFromName = map[string]Status{
	"parked": Parked,
	"exited": Exited,
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := statusFromName[n]; ok {
		*s = v
	}
	return nil
}

// Category classifies a log entry for the dashboard.
type Category string

const (
	CategorySlot     Category = "slot"
	CategoryEntry    Category = "entry"
	CategoryTime     Category = "time"
	CategoryParking  Category = "parking"
	CategoryMovement Category = "movement"
	CategoryExiting  Category = "exiting"
	CategoryPayment  Category = "payment"
)

type LogEntry struct {
	Time     time.Time `json:"time"`
	Message  string    `json:"msg"`
	Category Category  `json:"type"`
}

// VehicleSession is one tracked parked/exited lifecycle of a tag. The same
// tag may appear again after it exits; re-entry either revives the old
// session or appends a new one depending on the event kind.
type VehicleSession struct {
	ID        string    `json:"cardUID"`
	Status    Status    `json:"status"`
	EntryTime time.Time `json:"entryTime"`
	ExitTime  null.Time `json:"exitTime"`
	Slot      int       `json:"slot"`
	Fee       int64     `json:"fee,omitempty"`
	Duration  string    `json:"duration,omitempty"`
}

type ReaderRole string

const (
	ReaderEntry ReaderRole = "entry"
	ReaderExit  ReaderRole = "exit"
)

type Reader struct {
	ID       string     `json:"id" yaml:"id"`
	Role     ReaderRole `json:"role" yaml:"role"`
	Location string     `json:"location,omitempty" yaml:"location"`
}

// Info is the static description of the lot. It is set once at start and
// survives resets.
type Info struct {
	Name        string   `json:"name" yaml:"name"`
	Currency    string   `json:"currency" yaml:"currency"`
	PricingRule string   `json:"pricingRule" yaml:"pricing_rule"`
	Readers     []Reader `json:"readers" yaml:"readers"`
}

type Snapshot struct {
	TotalSlots     int              `json:"total"`
	AvailableSlots int              `json:"available"`
	Slots          []int            `json:"slots"`
	Log            []LogEntry       `json:"logs"`
	Vehicles       []VehicleSession `json:"vehicles"`
	Revenue        int64            `json:"revenue"`
	Transactions   int              `json:"totalTransactions"`
	Config         Info             `json:"config"`
}

// NewSnapshot returns the starting state of a lot with total free slots.
func NewSnapshot(total int, info Info) Snapshot {
	if total < 0 {
		total = 0
	}
	return Snapshot{
		TotalSlots:     total,
		AvailableSlots: total,
		Slots:          make([]int, total),
		Log:            []LogEntry{},
		Vehicles:       []VehicleSession{},
		Config:         info.clone(),
	}
}

func (i Info) clone() Info {
	if i.Readers != nil {
		readers := make([]Reader, len(i.Readers))
		copy(readers, i.Readers)
		i.Readers = readers
	}
	return i
}

// Clone returns a deep copy of the snapshot so the copy can be mutated
// independently of the original.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Slots = append([]int(nil), s.Slots...)
	c.Log = append([]LogEntry(nil), s.Log...)
	c.Vehicles = append([]VehicleSession(nil), s.Vehicles...)
	if c.Slots == nil {
		c.Slots = []int{}
	}
	if c.Log == nil {
		c.Log = []LogEntry{}
	}
	if c.Vehicles == nil {
		c.Vehicles = []VehicleSession{}
	}
	c.Config = s.Config.clone()
	return c
}

// Occupied returns the number of slots currently reported occupied.
func (s Snapshot) Occupied() int {
	n := 0
	for _, v := range s.Slots {
		n += v
	}
	return n
}

// ParkedCount returns the number of vehicle sessions in the parked state.
func (s Snapshot) ParkedCount() int {
	n := 0
	for _, v := range s.Vehicles {
		if v.Status == Parked {
			n++
		}
	}
	return n
}

// findParked returns the index of the parked session for id, or -1.
func (s Snapshot) findParked(id string) int {
	for i, v := range s.Vehicles {
		if v.ID == id && v.Status == Parked {
			return i
		}
	}
	return -1
}

// findLatest returns the index of the most recent session for id in any
// status, or -1.
func (s Snapshot) findLatest(id string) int {
	for i := len(s.Vehicles) - 1; i >= 0; i-- {
		if s.Vehicles[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) recomputeAvailable() {
	s.AvailableSlots = clamp(s.TotalSlots-s.Occupied(), 0, s.TotalSlots)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
