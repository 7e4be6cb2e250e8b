// Package middleware provides the bearer-token auth guard and the
// rate-limit admission middleware that wrap shopcore HTTP handlers.
package middleware
