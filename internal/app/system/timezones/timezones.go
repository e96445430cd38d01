package timezones

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zone database for hosts without one
)

var (
	mu    sync.Mutex
	cache = map[string]*time.Location{}
)

// Location loads and caches an IANA zone.
func Location(id string) (*time.Location, error) {
	mu.Lock()
	defer mu.Unlock()
	if loc, ok := cache[id]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", id, err)
	}
	cache[id] = loc
	return loc, nil
}

// At combines the calendar day of date, read in loc, with an "HH:MM"
// clock time. An empty or malformed clock returns date unchanged, and ok
// reports whether the clock was applied.
func At(date time.Time, clock string, loc *time.Location) (t time.Time, ok bool) {
	clock = strings.TrimSpace(clock)
	if clock == "" || loc == nil {
		return date, false
	}
	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return date, false
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), true
}
