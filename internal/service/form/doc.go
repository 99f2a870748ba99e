// Package form manages public lead-capture forms and turns anonymous
// submissions into new prospects.
package form
