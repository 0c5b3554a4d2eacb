package config

import (
	"os"
	"strconv"
)

// Server captures process level configuration.
type Server struct {
	Addr string
	// DatabaseURL selects durable postgres stores when set; empty runs the
	// in-memory reference stores.
	DatabaseURL string
	// AuditBuffer sizes the async access-entry channel.
	AuditBuffer int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ADVISERD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	buffer := 256
	if raw := os.Getenv("ADVISERD_AUDIT_BUFFER"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			buffer = parsed
		}
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("ADVISERD_DATABASE_URL"),
		AuditBuffer: buffer,
	}
}
