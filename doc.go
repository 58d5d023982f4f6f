// Package main provides the entry point for the backoffice identity and
// authorization backend. It runs a web server using the Fiber framework
// that manages users, sessions, services, permissions and permission
// groups through a REST API, and issues HMAC signed access tokens
// carrying the encoded permission set of a user for one service. The
// application uses gorm for data persistence.
package main
