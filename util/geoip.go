package util

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// GeoLocator resolves client IPs to a city and country through a local
// GeoIP2/GeoLite2 City database, caching results in memory.
type GeoLocator struct {
	reader *geoip2.Reader
	cache  *cache.Cache
	hits   int64
	misses int64
}

// OpenGeoLocator opens the .mmdb file at path. An empty path yields a locator
// that resolves nothing.
func OpenGeoLocator(path string) (*GeoLocator, error) {
	g := &GeoLocator{cache: cache.New(24*time.Hour, time.Hour)}
	if path == "" {
		return g, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	g.reader = r
	return g, nil
}

// Close releases the database reader.
func (g *GeoLocator) Close() {
	if g != nil && g.reader != nil {
		_ = g.reader.Close()
		g.reader = nil
	}
}

// Lookup returns the English city and country names for ip. Private, loopback
// and unparsable addresses resolve to empty strings.
func (g *GeoLocator) Lookup(ip string) (city, country string) {
	if g == nil {
		return "", ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return "", ""
	}

	if v, ok := g.cache.Get(ip); ok {
		atomic.AddInt64(&g.hits, 1)
		if arr, ok := v.([2]string); ok {
			return arr[0], arr[1]
		}
	}
	atomic.AddInt64(&g.misses, 1)

	if g.reader == nil {
		return "", ""
	}
	rec, err := g.reader.City(parsed)
	if err != nil {
		return "", ""
	}
	city = rec.City.Names["en"]
	country = rec.Country.Names["en"]
	if country == "" {
		country = rec.Country.IsoCode
	}
	g.cache.Set(ip, [2]string{city, country}, cache.DefaultExpiration)
	return city, country
}

// Location formats Lookup's result as "City/Country", or whichever half is known.
func (g *GeoLocator) Location(ip string) string {
	city, country := g.Lookup(ip)
	switch {
	case city != "" && country != "":
		return city + "/" + country
	case country != "":
		return country
	default:
		return city
	}
}

// Metrics returns cache hits, misses and the current cache size.
func (g *GeoLocator) Metrics() (hits, misses int64, size int) {
	if g == nil {
		return 0, 0, 0
	}
	return atomic.LoadInt64(&g.hits), atomic.LoadInt64(&g.misses), g.cache.ItemCount()
}
