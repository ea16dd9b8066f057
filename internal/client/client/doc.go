// Package client contains the transport layer of the contentdesk CLI.
//
// # Overview
//
// The package provides:
//  1. The remote API contract (AuthAPI, ContentAPI and their union Client).
//  2. HTTPClient, a REST implementation that attaches the bearer token,
//     tags every request with an X-Request-ID and maps failures to typed errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Auth endpoints fail with *AuthError. Content endpoints fail with
// *NetworkError, which matches ErrUnauthorized (401/403) and ErrUnavailable
// (transport failures and 5xx) through errors.Is.
//
// Every call is a single attempt: no retries and no caching.
package client
