package lot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrDecode is returned when an encoded result does not match the expected
// pattern for its event kind.
var ErrDecode = errors.New("encoded result does not match")

var (
	paymentPattern   = regexp.MustCompile(`^FEE_(\d+)_TIME_(.+)$`)
	entryTimePattern = regexp.MustCompile(`^ENTRY_TIME_(.+)$`)
	exitTimePattern  = regexp.MustCompile(`^EXIT_TIME_(.+)$`)
	slotPattern      = regexp.MustCompile(`^(?:SLOT_)?(\d+)$`)
	availablePattern = regexp.MustCompile(`^AVAILABLE_(\d+)$`)
)

// Payment is the decoded form of a payment_info result.
type Payment struct {
	Fee             int64
	Duration        string
	DurationMinutes int
}

// DecodePayment parses "FEE_<amount>_TIME_<duration>".
func DecodePayment(result string) (Payment, error) {
	m := paymentPattern.FindStringSubmatch(strings.TrimSpace(result))
	if m == nil {
		return Payment{}, fmt.Errorf("payment %q: %w", result, ErrDecode)
	}
	fee, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Payment{}, fmt.Errorf("payment fee %q: %w", m[1], ErrDecode)
	}
	return Payment{
		Fee:             fee,
		Duration:        m[2],
		DurationMinutes: durationMinutes(m[2]),
	}, nil
}

// durationMinutes accepts Go duration syntax ("1h30m", "45m") or a bare
// minute count. Anything else yields 0; the raw token is kept for display.
func durationMinutes(token string) int {
	if d, err := time.ParseDuration(token); err == nil {
		return int(d / time.Minute)
	}
	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		return n
	}
	return 0
}

// DecodeTime extracts the time token from "ENTRY_TIME_<t>" or
// "EXIT_TIME_<t>" depending on kind.
func DecodeTime(kind Kind, result string) (string, error) {
	pattern := entryTimePattern
	if kind == KindExitTime {
		pattern = exitTimePattern
	}
	m := pattern.FindStringSubmatch(strings.TrimSpace(result))
	if m == nil {
		return "", fmt.Errorf("%s %q: %w", kind, result, ErrDecode)
	}
	return m[1], nil
}

// DecodeSlot parses a slot number from "SLOT_<n>" or "<n>".
func DecodeSlot(result string) (int, error) {
	m := slotPattern.FindStringSubmatch(strings.TrimSpace(result))
	if m == nil {
		return 0, fmt.Errorf("slot %q: %w", result, ErrDecode)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("slot %q: %w", result, ErrDecode)
	}
	return n, nil
}

// DecodeAvailable parses "AVAILABLE_<n>".
func DecodeAvailable(result string) (int, error) {
	m := availablePattern.FindStringSubmatch(strings.TrimSpace(result))
	if m == nil {
		return 0, fmt.Errorf("available %q: %w", result, ErrDecode)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("available %q: %w", result, ErrDecode)
	}
	return n, nil
}
