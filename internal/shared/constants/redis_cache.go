package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTLs for the skytrip application.
// Pattern: skytrip:{module}:{operation}:{identifier}

const CACHE_PREFIX = "skytrip"

// Flight catalog is near-immutable reference data; booked-seat views change
// with every booking write.
const (
	TTL_CATALOG_LIST   = 1 * time.Hour
	TTL_CATALOG_DETAIL = 6 * time.Hour
	TTL_CATALOG_SEARCH = 15 * time.Minute
	TTL_BOOKED_SEATS   = 2 * time.Minute
)

const (
	CACHE_KEY_FLIGHTS_LIST   = CACHE_PREFIX + ":flights:list"
	CACHE_KEY_FLIGHT_DETAIL  = CACHE_PREFIX + ":flights:detail:uuid:" // + flight-id
	CACHE_KEY_FLIGHTS_SEARCH = CACHE_PREFIX + ":flights:search"       // + :from:X:to:Y:date:Z
	CACHE_KEY_BOOKED_SEATS   = CACHE_PREFIX + ":seats:booked:flight:" // + flight-id
)

func FlightDetailKey(flightID string) string {
	return CACHE_KEY_FLIGHT_DETAIL + flightID
}

func FlightSearchKey(from, to, date string) string {
	return fmt.Sprintf("%s:from:%s:to:%s:date:%s", CACHE_KEY_FLIGHTS_SEARCH, from, to, date)
}

func BookedSeatsKey(flightID string) string {
	return CACHE_KEY_BOOKED_SEATS + flightID
}

// FlightCachePattern matches every catalog-derived key, used for invalidation
// on admin writes.
func FlightCachePattern() string {
	return CACHE_PREFIX + ":flights:*"
}

// Analytics aggregates are expensive to compute and tolerate staleness.
const (
	TTL_ANALYTICS_DASHBOARD = 5 * time.Minute
	TTL_ANALYTICS_ROUTES    = 30 * time.Minute
)

const (
	CACHE_KEY_ANALYTICS_DASHBOARD = CACHE_PREFIX + ":analytics:dashboard"
	CACHE_KEY_ANALYTICS_ROUTES    = CACHE_PREFIX + ":analytics:routes"
)
