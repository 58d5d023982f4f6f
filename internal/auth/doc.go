// Package auth implements the authentication and authorization core of
// the backoffice API.
//
// # Session Manager
//
// Service authenticates users against their stored Argon2id credentials
// and manages opaque sessions. Session identifiers are the base64
// encoding of 95 random bytes, collision checked against the store with
// a bounded retry. Resolving a session returns the user together with a
// fully hydrated permission group, so callers never need follow-up
// queries to know what the user may do.
//
// Authentication failures are deliberately coarse: a missing user, a
// missing local method and a wrong password all surface as the same
// "identifier or password is incorrect" error to prevent account
// enumeration.
//
// # Permission Encoder
//
// A user's permissions for one service compress into a 128 bit mask.
// Each permission carries a bit index in [0,127]; index i maps to bit
// 127-i of the mask, so the numeric value is the sum of 2^(127-i) over
// all set indices. The mask is rendered in base 36 and travels as the
// prs claim of issued access tokens. The encoding is deterministic and
// a verifier that knows the service's index assignment can decode it
// back to the exact permission set.
//
// # Access Token Issuer
//
// TokenIssuer builds HS256 signed tokens for a (user, service) pair:
// sub is the service id, iss the configured issuer identity, aud the
// user's email and prs the encoded permission mask. Tokens expire after
// one hour and are signed with the service's secret key, which is only
// ever loaded through the explicit with-secret read path.
package auth
