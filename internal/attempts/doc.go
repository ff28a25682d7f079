// Package attempts rate-limits failed deletion confirmations per client.
package attempts
