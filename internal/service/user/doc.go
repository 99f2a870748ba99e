// Package user manages staff accounts: registration with hashed passwords,
// credential checks for login, and advisor lookups for assignment.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
package user
