// Package prospect implements the admissions pipeline: lead intake, field
// edits, advisor assignment, stage transitions and deletion.
//
// Every operation receives the caller's access.Principal. Advisors are
// pinned to their own prospects; list calls are silently scoped while
// single-record calls answer access.ErrForbidden.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
package prospect
