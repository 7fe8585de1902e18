// Package clock resolves "now" as wall-clock time in the operating time zone.
package clock

import (
	"fmt"
	"time"

	"pickupsched/internal/model"
)

// DefaultZone is the service's operating zone when none is configured.
const DefaultZone = "America/Chicago"

// Clock returns the current instant.
type Clock func() time.Time

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Local is a resolved wall-clock reading.
type Local struct {
	Year       int
	Month      time.Month
	Day        int
	Hour       int
	Minute     int
	Second     int
	DateString string
	Time       time.Time
}

// Date returns the local calendar date.
func (l Local) Date() model.Date {
	return model.Date{Year: l.Year, Month: l.Month, Day: l.Day}
}

// Resolver converts the clock's instant into a named zone. Offsets come
// from the tz database so DST transitions are honoured.
type Resolver struct {
	loc   *time.Location
	clock Clock
}

// NewResolver loads zone and binds it to c (time.Now when nil).
func NewResolver(zone string, c Clock) (*Resolver, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	if c == nil {
		c = time.Now
	}
	return &Resolver{loc: loc, clock: c}, nil
}

// Location is the operating zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now reads the clock in the operating zone.
func (r *Resolver) Now() Local {
	t := r.clock().In(r.loc)
	return Local{
		Year:       t.Year(),
		Month:      t.Month(),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		DateString: t.Format(model.DateLayout),
		Time:       t,
	}
}

// In returns a resolver sharing the clock but using another zone.
// An empty zone returns r itself.
func (r *Resolver) In(zone string) (*Resolver, error) {
	if zone == "" || zone == r.loc.String() {
		return r, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return &Resolver{loc: loc, clock: r.clock}, nil
}
