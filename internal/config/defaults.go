package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "parcels",
}

var defaultKafka = Kafka{
	Topic:   "parcel-notifications",
	GroupID: "service-parcel-notifier",
}

var defaultGeocode = Geocode{
	BaseURL: "https://maps.googleapis.com/maps/api/geocode/json",
	Timeout: 2 * time.Second,
}

var defaultAssignment = Assignment{
	DriverCapacity: 5,
}

var defaultTracking = Tracking{
	SettledTTL: time.Hour,
	ActiveTTL:  5 * time.Minute,
}

var defaultNotify = Notify{
	MaxAttempts: 3,
	Backoff:     5 * time.Second,
	Workers:     4,
	QueueSize:   256,
}

var defaultRateLimit = RateLimit{
	Enabled:     true,
	Rate:        20,
	Burst:       40,
	DriverRate:  50,
	DriverBurst: 100,
	TTL:         10 * time.Minute,
	MaxBuckets:  10000,
}

const defaultStatusMetricsSchedule = "@every 30s"

const defaultOperationTimeout = 3 * time.Second

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultAssignment returns the default assignment settings.
func DefaultAssignment() Assignment {
	return defaultAssignment
}

// DefaultTracking returns the default tracking cache settings.
func DefaultTracking() Tracking {
	return defaultTracking
}

// DefaultNotify returns the default notification queue settings.
func DefaultNotify() Notify {
	return defaultNotify
}
