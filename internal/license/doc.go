// Package license decides whether a hardware or license token is valid and
// manages the token lifecycle on top of a tokenstore.Store.
//
// # Verification Flow
//
// A verification runs these checks in order and stops at the first failure:
//
//	1. missing_token    no token supplied
//	2. token_not_found  the store has no record
//	3. invalid_date     the stored expiration is not a YYYY-MM-DD date
//	4. token_expired    the expiration day is before today
//	5. valid            days_remaining = expiration day - today
//
// Days are calendar days in the service's time zone, so a token is still
// valid with zero days remaining on its expiration day.
//
// # Encodings
//
// The same Verdict is rendered two ways. DesktopEncoding produces
// {success, message, expires, days_remaining} with a status per outcome;
// ExtensionEncoding produces {status, reason, expires} and is always sent
// with 200 so older browser extensions keep working.
//
// # Mutations
//
// Register, Extend and Delete run inside Store.Update, so each check and the
// following write happen under one lock and concurrent requests cannot
// overwrite each other's changes.
package license
