// Package schedule allocates future publish slots on a fixed daily
// cadence of UTC hours, persisting a cursor so consecutive uploads
// never collide on the same slot.
package schedule

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"
)

// Allocator hands out the next free publish instant. NextSlot is pure
// with respect to the persisted cursor: repeated calls without an
// intervening Commit return the same slot.
type Allocator struct {
	stateFile string
	slots     []int // ascending hours-of-day, UTC
}

type state struct {
	LastScheduled string `json:"last_scheduled"`
}

// New creates an Allocator over the given cadence hours. The state
// file does not need to exist yet.
func New(stateFile string, slotsUTC []int) (*Allocator, error) {
	if len(slotsUTC) == 0 {
		return nil, fmt.Errorf("schedule: cadence is empty")
	}
	slots := make([]int, len(slotsUTC))
	copy(slots, slotsUTC)
	sort.Ints(slots)
	for _, h := range slots {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("schedule: slot hour %d out of range", h)
		}
	}
	return &Allocator{stateFile: stateFile, slots: slots}, nil
}

// NextSlot returns the first cadence slot strictly after both now and
// the persisted cursor. The cursor is not advanced; call Commit once
// the publish that uses the slot has succeeded.
func (a *Allocator) NextSlot(now time.Time) (time.Time, error) {
	candidate := now.UTC()
	if last, ok := a.lastScheduled(); ok && last.After(candidate) {
		candidate = last
	}

	// All cadence hours lie within one day, so scanning the candidate's
	// day plus the following one always finds a slot.
	for day := 0; day < 2; day++ {
		y, m, d := candidate.Date()
		for _, h := range a.slots {
			slot := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
			if slot.After(candidate) {
				return slot, nil
			}
		}
		candidate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("schedule: no slot found after %s", now.UTC().Format(time.RFC3339))
}

// Commit persists slot as the new cursor. Every allocated slot must be
// committed or discarded before NextSlot is queried again.
func (a *Allocator) Commit(slot time.Time) error {
	data, err := json.MarshalIndent(state{LastScheduled: Format(slot)}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.stateFile, data, 0644); err != nil {
		return fmt.Errorf("schedule: write state: %w", err)
	}
	return nil
}

// lastScheduled loads the persisted cursor. A missing or unparsable
// state file is treated as no prior schedule.
func (a *Allocator) lastScheduled() (time.Time, bool) {
	data, err := os.ReadFile(a.stateFile)
	if err != nil {
		return time.Time{}, false
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[schedule] Warning: unreadable state file %s, ignoring: %v", a.stateFile, err)
		return time.Time{}, false
	}
	last, err := time.Parse(time.RFC3339, st.LastScheduled)
	if err != nil {
		log.Printf("[schedule] Warning: invalid last_scheduled in %s, ignoring", a.stateFile)
		return time.Time{}, false
	}
	return last.UTC(), true
}

// Format renders a slot the way the publish APIs expect it: RFC 3339
// UTC with a trailing Z.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
