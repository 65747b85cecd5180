// Package recording understands the two-file script(1) capture format and the
// object-store layout recordings are kept under.
//
// A recording is a folder holding exactly two members:
//
//   - timing: one "<delay-seconds> <byte-count>" pair per line.
//   - typescript: the raw terminal output, usually preceded by a
//     "Script started on ..." preamble line.
//
// # Core Components
//
//   - [ParseTiming]: Tolerant timing-file parser. Malformed lines are skipped.
//   - [DetectOffset]: Finds where captured output starts inside a typescript.
//   - [OutputBlob]: A typescript paired with its header offset.
//   - [RecordingKey]: Builds and parses physical object keys of the form
//     {prefix}{namespace}/{folder}/{file}.
//   - [FolderSet]: Accumulates folder names across paginated key listings.
//
// Everything in this package is pure: no I/O, no logging. Listing and fetching
// objects is done by the catalog package on top of a storage.Store.
package recording
