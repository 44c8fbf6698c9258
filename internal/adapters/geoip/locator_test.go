package geoip

import (
	"errors"
	"net"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

type fakeReader struct {
	rec *geoip2.City
	err error
}

func (f fakeReader) City(net.IP) (*geoip2.City, error) {
	return f.rec, f.err
}

func cityRecord(lat, lon float64, city, country string) *geoip2.City {
	rec := &geoip2.City{}
	rec.Location.Latitude = lat
	rec.Location.Longitude = lon
	if city != "" {
		rec.City.Names = map[string]string{"en": city}
	}
	if country != "" {
		rec.Country.Names = map[string]string{"en": country}
	}
	return rec
}

func TestLocate(t *testing.T) {
	l := &Locator{db: fakeReader{rec: cityRecord(43.263, -2.935, "Bilbao", "Spain")}}

	p, name, err := l.Locate(net.ParseIP("81.9.0.1"))
	require.NoError(t, err)
	assert.Equal(t, 43.263, p.Lat)
	assert.Equal(t, -2.935, p.Lon)
	assert.Equal(t, "Bilbao, Spain", name)
}

func TestLocateCountryOnly(t *testing.T) {
	l := &Locator{db: fakeReader{rec: cityRecord(40, -4, "", "Spain")}}

	_, name, err := l.Locate(net.ParseIP("81.9.0.1"))
	require.NoError(t, err)
	assert.Equal(t, "Spain", name)
}

func TestLocatePrivateAddress(t *testing.T) {
	l := &Locator{db: fakeReader{rec: cityRecord(1, 1, "x", "y")}}

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1"} {
		_, _, err := l.Locate(net.ParseIP(ip))
		assert.ErrorIs(t, err, ErrNoLocation, ip)
	}
}

func TestLocateUnknownBlock(t *testing.T) {
	l := &Locator{db: fakeReader{rec: &geoip2.City{}}}

	_, _, err := l.Locate(net.ParseIP("81.9.0.1"))
	assert.ErrorIs(t, err, ErrNoLocation)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocateReaderError(t *testing.T) {
	boom := errors.New("corrupt database")
	l := &Locator{db: fakeReader{err: boom}}

	_, _, err := l.Locate(net.ParseIP("81.9.0.1"))
	assert.ErrorIs(t, err, boom)
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open("/nonexistent/GeoLite2-City.mmdb")
	assert.Error(t, err)
}
