package mock

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
)

// Applier is satisfied by *lot.Service.
type Applier interface {
	Apply(ev lot.Event) (lot.Snapshot, lot.Outcome, error)
}

type stage int

const (
	away stage = iota
	arriving
	cruising
	parked
	leavingSlot
	exiting
	paying
)

type mockCar struct {
	tag       string
	stage     stage
	wait      int
	slot      int
	enteredAt int
	visits    int
	minDwell  int
	maxDwell  int
}

// feePerTick is the simulated price per tick of dwell time.
const feePerTick = 2

// Generator plays a rig: cars arrive, park, leave their slot and pay,
// then come back later. Every step goes through the same Apply path as a
// real rig.
type Generator struct {
	svc      Applier
	total    int
	interval time.Duration
	rng      *rand.Rand
	cars     []*mockCar
	occupied map[int]string
	clock    func() time.Time
}

func NewGenerator(svc Applier, total int, interval time.Duration) *Generator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Generator{
		svc:      svc,
		total:    total,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		occupied: make(map[int]string),
		clock:    time.Now,
		cars: []*mockCar{
			{tag: "A1B2C3D4", minDwell: 3, maxDwell: 8},
			{tag: "9F8E7D6C", minDwell: 5, maxDwell: 12, wait: 2},
			{tag: "11223344", minDwell: 2, maxDwell: 5, wait: 4},
			{tag: "DEADBEEF", minDwell: 8, maxDwell: 20, wait: 6},
			{tag: "CAFEBABE", minDwell: 4, maxDwell: 10, wait: 9},
			{tag: "0A0B0C0D", minDwell: 3, maxDwell: 6, wait: 12},
			{tag: "77665544", minDwell: 6, maxDwell: 14, wait: 15},
		},
	}
}

// Start plays the script in the background until ctx is cancelled.
func (g *Generator) Start(ctx context.Context) {
	log.Printf("mock: simulating %d cars over %d slots every %s", len(g.cars), g.total, g.interval)
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			g.step(tick)
		}
	}
}

// step advances every car by one stage and applies the resulting events.
func (g *Generator) step(tick int) {
	for _, car := range g.cars {
		for _, ev := range g.advance(car, tick) {
			if _, out, err := g.svc.Apply(ev); err != nil {
				log.Printf("mock: %s %s: %v", ev.Kind, ev.ID, err)
			} else if out.Warning != "" {
				log.Printf("mock: %s %s: %s", ev.Kind, ev.ID, out.Warning)
			}
		}
	}
}

func (g *Generator) advance(car *mockCar, tick int) []lot.Event {
	if car.wait > 0 {
		car.wait--
		return nil
	}

	now := g.clock().Format("15:04:05")
	switch car.stage {
	case away:
		car.stage = arriving
		kind := lot.KindVehicleEntry
		if car.visits > 0 {
			kind = lot.KindVehicleReentry
		}
		car.enteredAt = tick
		return []lot.Event{
			{Kind: kind, ID: car.tag, Result: "GATE_OPEN"},
			{Kind: lot.KindEntryTime, ID: car.tag, Result: "ENTRY_TIME_" + now},
		}

	case arriving, cruising:
		slot := g.freeSlot()
		if slot == 0 {
			car.stage = cruising
			return nil
		}
		g.occupied[slot] = car.tag
		car.slot = slot
		car.stage = parked
		car.wait = car.minDwell + g.rng.Intn(car.maxDwell-car.minDwell+1)
		return []lot.Event{
			{Kind: lot.KindSlotOccupied, ID: fmt.Sprint(slot)},
			{Kind: lot.KindVehicleParked, ID: car.tag, Result: fmt.Sprintf("SLOT_%d", slot)},
		}

	case parked:
		car.stage = leavingSlot
		slot := car.slot
		delete(g.occupied, slot)
		car.slot = 0
		return []lot.Event{
			{Kind: lot.KindVehicleLeft, ID: car.tag},
			{Kind: lot.KindSlotFreed, ID: fmt.Sprint(slot)},
		}

	case leavingSlot:
		car.stage = exiting
		return []lot.Event{{Kind: lot.KindVehicleExiting, ID: car.tag}}

	case exiting:
		car.stage = paying
		return []lot.Event{{Kind: lot.KindExitTime, ID: car.tag, Result: "EXIT_TIME_" + now}}

	case paying:
		dwell := tick - car.enteredAt
		minutes := int(time.Duration(dwell) * g.interval / time.Minute)
		car.stage = away
		car.visits++
		car.wait = 4 + g.rng.Intn(10)
		return []lot.Event{{
			Kind:   lot.KindPaymentInfo,
			ID:     car.tag,
			Result: fmt.Sprintf("FEE_%d_TIME_%dm", dwell*feePerTick, minutes),
		}}
	}
	return nil
}

func (g *Generator) freeSlot() int {
	var free []int
	for i := 1; i <= g.total; i++ {
		if _, taken := g.occupied[i]; !taken {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return 0
	}
	return free[g.rng.Intn(len(free))]
}
