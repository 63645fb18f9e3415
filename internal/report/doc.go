// Package report turns the sales ledger into monthly views and exports.
//
// Everything here is a pure function of its inputs: records are never
// modified and nothing is persisted. Month keys ("YYYY-MM") and printed
// timestamps are computed in a caller-supplied location; nil means local
// time.
package report
