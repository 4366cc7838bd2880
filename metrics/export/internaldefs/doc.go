// Package internaldefs holds the metric names, help strings and bucket
// layout shared by the exporters.
//
// The Prometheus and OTel exporters both read these tables, so a rename here
// changes every exporter at once.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
