// Package reporting builds the four report types, exports them to CSV,
// Excel or PDF files and runs scheduled report definitions.
//
// Generated artifacts are handed to a Sink. The default LogSink only
// records that a definition's recipients were not contacted; ArchiveSink
// and SESSink are opt-in.
package reporting
