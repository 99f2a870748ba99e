// Package admission tracks the documents and payments a prospect hands in
// after the appointment, derives the admission progress percentage, and
// performs the explicit enrollment step.
package admission
