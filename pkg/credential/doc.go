// Package credential resolves raw request credentials into verified identities.
//
// Two kinds of credential are accepted: short-lived session tokens signed by
// pkg/jwt, and API keys. API keys are stored only as the hex SHA-256 of the raw
// key and are looked up by exact hash match. An unverified account is rejected
// unless its role is elevated.
//
// Successful API key lookups update the key's last-used time in a background
// goroutine; failures there are logged and never affect the caller.
package credential
