package lot

// Default log ring thresholds. The log grows until it passes the trigger
// and is then cut back to the retained length in one step.
const (
	DefaultLogTrigger = 200
	DefaultLogRetain  = 100
)

// LogRing keeps the activity log newest-first and bounded.
type LogRing struct {
	trigger int
	retain  int
}

// NewLogRing returns a ring that trims to retain entries once the log is
// longer than trigger. Non-positive values fall back to the defaults and
// retain is capped at trigger.
func NewLogRing(trigger, retain int) LogRing {
	if trigger <= 0 {
		trigger = DefaultLogTrigger
	}
	if retain <= 0 {
		retain = DefaultLogRetain
	}
	if retain > trigger {
		retain = trigger
	}
	return LogRing{trigger: trigger, retain: retain}
}

func (r LogRing) Trigger() int { return r.trigger }
func (r LogRing) Retain() int  { return r.retain }

// Push prepends e and trims the result. The returned slice never shares
// its backing array with entries.
func (r LogRing) Push(entries []LogEntry, e LogEntry) []LogEntry {
	out := make([]LogEntry, 0, len(entries)+1)
	out = append(out, e)
	out = append(out, entries...)
	if len(out) > r.trigger {
		out = out[:r.retain:r.retain]
	}
	return out
}
