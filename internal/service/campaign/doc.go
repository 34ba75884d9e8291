// Package campaign implements campaign lifecycle management.
//
// The service layer contains the state machine for creating, scheduling,
// sending, pausing, and completing email campaigns. It depends on the
// repository interface defined in this package and should never import
// from the HTTP layer.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
package campaign
