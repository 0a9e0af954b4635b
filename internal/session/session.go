// Package session holds the identity captured by the entry form and the
// location used to center the map.
package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is returned when a required form field is empty.
var ErrMissingField = errors.New("missing required field")

// Default view used when no location was captured.
const (
	DefaultZoom = 2.0
	GuestName   = "Guest"
)

// Location is a geographic position in degrees.
type Location struct {
	Lat    float64 `json:"lat" yaml:"lat" toml:"lat"`
	Lon    float64 `json:"lon" yaml:"lon" toml:"lon"`
	Source string  `json:"source,omitempty" yaml:"source,omitempty" toml:"-"`
}

func (l Location) String() string {
	return fmt.Sprintf("%.5f, %.5f", l.Lat, l.Lon)
}

// Context is the read-only view of a session consumed by the map page.
type Context interface {
	DisplayName() string
	Location() (Location, bool)
}

// Session is created once when the form is submitted and never changes.
type Session struct {
	displayName string
	phoneNumber string
	location    *Location
}

var _ Context = (*Session)(nil)

// New validates the form values and creates a session. loc may be nil when
// no location could be captured.
func New(displayName, phoneNumber string, loc *Location) (*Session, error) {
	displayName = strings.TrimSpace(displayName)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if displayName == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if phoneNumber == "" {
		return nil, fmt.Errorf("%w: mobile number", ErrMissingField)
	}
	s := &Session{displayName: displayName, phoneNumber: phoneNumber}
	if loc != nil {
		l := *loc
		s.location = &l
	}
	return s, nil
}

func (s *Session) DisplayName() string { return s.displayName }

func (s *Session) PhoneNumber() string { return s.phoneNumber }

func (s *Session) Location() (Location, bool) {
	if s.location == nil {
		return Location{}, false
	}
	return *s.location, true
}

// Greeting returns the banner text for the map page.
func Greeting(ctx Context) string {
	name := ""
	if ctx != nil {
		name = ctx.DisplayName()
	}
	if name == "" {
		name = GuestName
	}
	return "Welcome, " + name
}

// MapDefaults chooses the initial view of the map.
type MapDefaults struct {
	Center      Location
	Zoom        float64
	LocatedZoom float64
}

// DefaultMapDefaults centers the world at zoom 2 and zooms to street level
// when the user was located.
func DefaultMapDefaults() MapDefaults {
	return MapDefaults{Zoom: DefaultZoom, LocatedZoom: 12}
}

// InitialView returns the center and zoom for ctx: the captured location at
// LocatedZoom, or Center at Zoom when there is none.
func (d MapDefaults) InitialView(ctx Context) (Location, float64) {
	if ctx != nil {
		if loc, ok := ctx.Location(); ok {
			return loc, d.LocatedZoom
		}
	}
	return d.Center, d.Zoom
}
