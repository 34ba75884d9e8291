// Package sending dispatches campaign email through a pluggable transport.
//
// The dispatcher runs one bounded worker pool per sending campaign, pulling
// pending recipients from the ledger and recording each attempt's outcome
// back into it. Transport-level failures (provider unreachable) leave
// recipients pending so a later send retries them; per-message rejections
// are permanent and mark the recipient failed.
package sending
