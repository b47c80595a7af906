package utils

import "github.com/google/uuid"

// GenerateSessionID issues the opaque id correlating events from one browser
// session. The handshake endpoint is the only place these are minted; clients
// persist and echo the id for the session's lifetime.
func GenerateSessionID() string {
	return uuid.NewString()
}
