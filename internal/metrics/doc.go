// Package metrics computes the dashboard and report figures of the CRM:
// grouped counts, conversion rates, cost per lead and per enrollment, ROI
// and weekly or monthly trends.
//
// The calculations in calc.go are pure. Engine reads the live store
// through Source and always works inside an explicit Window; which window
// a call site uses by default is configuration (see Defaults).
//
// Every rate is a percentage rounded to two decimals. A zero denominator
// yields 0, never NaN or Inf.
package metrics
