// Package uniuri generates cryptographically secure random strings suitable
// for secrets and seed passwords.
package uniuri
