// Package report summarises a completed monitoring session: per-frame count
// series, distribution statistics, an HTML chart page, and trajectory plots.
// It consumes pipeline output after the run; nothing here sits on the
// per-frame hot path beyond appending one sample.
package report
