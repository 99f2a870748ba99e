// Package campaign implements marketing campaign management and the
// attribution links between campaigns and prospects.
//
// The service layer holds the budget and date rules. Role checks happen at
// the route layer: advisors never reach this package.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
package campaign
