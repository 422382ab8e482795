package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "campus"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "5000"
	DefaultLogLevel = "info"

	DefaultCORSAllowedOrigins = "*"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLockBackend       = LockBackendMemory
	DefaultLockTTL           = 10 * time.Second
	DefaultLockRetryInterval = 50 * time.Millisecond
	DefaultLockWaitTimeout   = 5 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultKafkaBookingTopic = "campus.bookings"
	DefaultKafkaAuditGroupID = "campus-booking-audit"
)

const (
	LockBackendMemory = "memory"
	LockBackendMongo  = "mongo"
	LockBackendRedis  = "redis"
)
