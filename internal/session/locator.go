package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ErrLocationUnavailable is returned when no location can be determined.
var ErrLocationUnavailable = errors.New("location unavailable")

// Locator determines the user's position.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// StaticLocator always returns the same position.
type StaticLocator struct {
	Location Location
}

func (s StaticLocator) Locate(context.Context) (Location, error) {
	loc := s.Location
	loc.Source = "static"
	return loc, nil
}

// NoLocator never finds a position.
type NoLocator struct{}

func (NoLocator) Locate(context.Context) (Location, error) {
	return Location{}, ErrLocationUnavailable
}

// DefaultIPLocatorURL is the ip-api.com JSON endpoint.
const DefaultIPLocatorURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country"

// IPLocator estimates the position from the public IP address using an
// ip-api.com compatible endpoint.
type IPLocator struct {
	URL    string
	Client *http.Client
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Country string  `json:"country"`
}

func (l IPLocator) Locate(ctx context.Context) (Location, error) {
	url := l.URL
	if url == "" {
		url = DefaultIPLocatorURL
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("%w: http status %d", ErrLocationUnavailable, resp.StatusCode)
	}
	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("%w: %s", ErrLocationUnavailable, body.Message)
	}

	source := "ip"
	if body.City != "" {
		source = "ip: " + body.City
		if body.Country != "" {
			source += ", " + body.Country
		}
	}
	return Location{Lat: body.Lat, Lon: body.Lon, Source: source}, nil
}

// Capture runs loc with a timeout. It returns nil when the position cannot
// be determined, in which case the map falls back to its default center.
func Capture(ctx context.Context, loc Locator, timeout time.Duration, logger *slog.Logger) *Location {
	if loc == nil {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	l, err := loc.Locate(ctx)
	if err != nil {
		logger.Warn("location lookup failed", "error", err, "elapsed", time.Since(start))
		return nil
	}
	logger.Info("location captured", "lat", l.Lat, "lon", l.Lon, "source", l.Source)
	return &l
}
