// Package hana is a SAP HANA database backend: connection lifecycle with
// schema selection, cursor wrappers that translate %s placeholders to the
// question-mark markers the wire protocol expects, error classification into
// the adapter taxonomy, managed transaction blocks with dirty tracking, and
// the HANA SQL dialect (type templates, lookup operators, identifier
// quoting, sequences for auto-increment columns).
//
// The backend talks to the server through the driver abstraction in
// pkg/driver; production connections use the go-hdb implementation in
// pkg/driver/hdb. Debug cursors additionally time every statement and append
// it to a bounded per-connection query log.
package hana
