package clock

import (
	"sync"
	"time"

	"habit-tracker/internal/domain"
)

// Clock supplies the current instant and the user's timezone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
	TimezoneID() string
}

// Today returns the calendar date of c.Now() in c's timezone.
func Today(c Clock) domain.Date {
	return domain.DateOf(c.Now(), c.Location())
}

// LoadLocation resolves an IANA timezone id. An empty id means the process local
// zone. Unknown ids fall back to UTC and the second return value reports it.
func LoadLocation(id string) (*time.Location, bool) {
	if id == "" || id == "Local" {
		return time.Local, false
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return time.UTC, true
	}
	return loc, false
}

// System is the wall clock in a fixed timezone.
type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock for the given timezone id.
// An empty id uses the process local zone.
func NewSystem(timezoneID string) *System {
	loc, _ := LoadLocation(timezoneID)
	return &System{loc: loc}
}

// Now returns time.Now in the configured zone.
func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

// Location returns the configured zone.
func (s *System) Location() *time.Location {
	return s.loc
}

// TimezoneID returns the IANA name of the configured zone.
func (s *System) TimezoneID() string {
	return s.loc.String()
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

// NewFake returns a clock frozen at now. The timezone is taken from now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now, loc: now.Location()}
}

// Now returns the frozen instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Location returns the zone of the initial instant.
func (f *Fake) Location() *time.Location {
	return f.loc
}

// TimezoneID returns the zone name.
func (f *Fake) TimezoneID() string {
	return f.loc.String()
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.In(f.loc)
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
