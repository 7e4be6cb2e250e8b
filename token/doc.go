// Package token issues and verifies the compact three-segment access and
// refresh tokens used by the shopcore API, with strict validation semantics
// suitable for low-latency authentication paths.
package token
