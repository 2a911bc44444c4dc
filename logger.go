package kizuna

import "log/slog"

// logger is the package-wide logger used when no WithLogger option is given.
var logger *slog.Logger = slog.Default()

// SetLogger overrides the package logger.
//
// If not set, slog.Default() is used. Managers and buses created afterwards
// pick up the new logger; existing ones keep theirs.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}
