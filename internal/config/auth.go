package config

import (
	"sync"
)

var (
	jwtSecretMu sync.RWMutex
	// JWTSecret signs and verifies bearer tokens accepted by serve mode
	JWTSecret = []byte(GetEnvOrDefault("JWT_SECRET", ""))
)

// RunsScope is the scope a serve-mode token needs to invoke the agent
const RunsScope = "runs:write"

// SetJWTSecret temporarily changes the JWT secret and returns a function to restore it
func SetJWTSecret(secret []byte) func() {
	jwtSecretMu.Lock()
	previous := JWTSecret
	JWTSecret = secret
	jwtSecretMu.Unlock()

	return func() {
		jwtSecretMu.Lock()
		JWTSecret = previous
		jwtSecretMu.Unlock()
	}
}

// GetJWTSecret returns the current JWT secret in a thread-safe manner
func GetJWTSecret() []byte {
	jwtSecretMu.RLock()
	defer jwtSecretMu.RUnlock()
	return JWTSecret
}
