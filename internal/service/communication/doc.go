// Package communication logs calls, emails, WhatsApp messages and visits
// between advisors and prospects. Creating a communication bumps the
// prospect's last interaction in the same transaction.
package communication
