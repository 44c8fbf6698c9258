// Package geoip resolves client addresses to coordinates with a MaxMind
// GeoLite2/GeoIP2 City database.
package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// ErrNoLocation is returned for addresses the database has no position for
// (private ranges, loopback, unknown blocks). It matches domain.ErrNotFound.
var ErrNoLocation = fmt.Errorf("no location for address: %w", domain.ErrNotFound)

// cityReader is the part of *geoip2.Reader the locator uses.
type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// Locator implements ports.Locator.
type Locator struct {
	db     cityReader
	closer func() error
}

// Open loads the database at path.
func Open(path string) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Locator{db: db, closer: db.Close}, nil
}

// Locate returns the approximate position of ip and a label naming the city
// and country when known.
func (l *Locator) Locate(ip net.IP) (domain.GeoPoint, string, error) {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return domain.GeoPoint{}, "", ErrNoLocation
	}

	rec, err := l.db.City(ip)
	if err != nil {
		return domain.GeoPoint{}, "", err
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return domain.GeoPoint{}, "", ErrNoLocation
	}

	p := domain.GeoPoint{Lat: rec.Location.Latitude, Lon: rec.Location.Longitude}
	return p, label(rec), nil
}

// Close releases the database.
func (l *Locator) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}

func label(rec *geoip2.City) string {
	city := rec.City.Names["en"]
	country := rec.Country.Names["en"]
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	default:
		return country
	}
}
