// Package basecamp is a client for the Basecamp Classic (bcx) REST API.
//
// Every call goes through a single pipeline:
//
//   - Request building: User-Agent from the account app name, JSON
//     content negotiation, JSON or raw (Params["binary"]) bodies
//   - Authentication: HTTP Basic when login and password are both set,
//     otherwise a bearer token, otherwise none
//   - Conditional requests: the ETag of the last response for the same
//     method, path and params is sent back as If-None-Match
//   - Normalization: every status code maps to a Result, either the decoded
//     payload or a {"message": ...} descriptor
//
// HTTP error statuses are data, not errors. Callers branch on the result:
//
//	client := basecamp.New(basecamp.Account{
//	    AccountID: "999999",
//	    AppName:   "Example (dev@example.com)",
//	    Token:     token,
//	})
//	res, err := client.Messages().Show(ctx, 605816632, 936075699)
//	if err != nil {
//	    // transport, decode or configuration failure
//	}
//	if msg, ok := res.Message(); ok && res.IsStatus() {
//	    // e.g. "404 Not Found" or "304 Not Modified"
//	}
//
// Validators live in a ValidatorStore. The default is a per-client
// MemoryStore; the store sub-package provides file and SQL backends. The
// client never skips a network call because of a stored validator.
//
// There is no retry, backoff, rate-limit queuing or pagination: a 429 is
// returned with its Retry-After value in the message and the caller decides.
package basecamp
