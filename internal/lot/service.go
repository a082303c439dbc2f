package lot

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var ErrInternal = errors.New("internal error")

// Publisher receives every snapshot that results from a state change.
// Publish is called with the service lock held and must not block.
type Publisher interface {
	Publish(snap Snapshot)
}

// Observer is told about every applied event. It is used for metrics.
type Observer interface {
	Observe(ev Event, out Outcome, snap Snapshot)
}

type ServiceOptions struct {
	Policy AvailabilityPolicy
	Ring   LogRing
	Now    func() time.Time
}

// Service serializes event handling against the store. Reduce, replace and
// publish happen under one lock, so subscribers see broadcasts in the same
// order the state changed.
type Service struct {
	mu         sync.Mutex
	store      *Store
	policy     AvailabilityPolicy
	ring       LogRing
	now        func() time.Time
	publishers []Publisher
	observers  []Observer
}

func NewService(store *Store, opts ServiceOptions) *Service {
	if !opts.Policy.Valid() {
		opts.Policy = PolicyOccupancy
	}
	if opts.Ring.trigger == 0 {
		opts.Ring = NewLogRing(DefaultLogTrigger, DefaultLogRetain)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:  store,
		policy: opts.Policy,
		ring:   opts.Ring,
		now:    opts.Now,
	}
}

// AddPublisher registers p. Publishers are called in registration order.
func (s *Service) AddPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers = append(s.publishers, p)
}

func (s *Service) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Service) Policy() AvailabilityPolicy { return s.policy }

// Snapshot returns a copy of the current lot state.
func (s *Service) Snapshot() Snapshot {
	return s.store.Get()
}

// Apply reduces ev into the stored snapshot. Unknown kinds and failed
// preconditions are not errors: the state is returned unchanged and the
// reason is reported in Outcome.Warning.
func (s *Service) Apply(ev Event) (Snapshot, Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.store.Get()
	next, out, err := s.reduce(cur, ev)
	if err != nil {
		log.Printf("lot: %s %q: %v", ev.Kind, ev.ID, err)
		return cur, Outcome{}, err
	}
	if out.Warning != "" {
		log.Printf("lot: warning: %s", out.Warning)
	}

	if out.Changed {
		if out.Entry != nil {
			next.Log = s.ring.Push(next.Log, *out.Entry)
		}
		s.store.Replace(next)
		for _, p := range s.publishers {
			p.Publish(next)
		}
	} else {
		next = cur
	}
	for _, o := range s.observers {
		o.Observe(ev, out, next)
	}
	return next, out, nil
}

func (s *Service) reduce(cur Snapshot, ev Event) (next Snapshot, out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: reducer panic: %v", ErrInternal, r)
		}
	}()
	next, out = Reduce(cur, ev, s.now(), s.policy)
	return next, out, nil
}

// Reset reinitializes the lot and publishes the fresh snapshot.
func (s *Service) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.store.Reset()
	log.Printf("lot: reset (%d slots)", snap.TotalSlots)
	for _, p := range s.publishers {
		p.Publish(snap)
	}
	return snap
}
