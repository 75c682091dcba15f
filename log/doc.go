// Package log provides a leveled structured logger built on [log/slog].
//
// A [Logger] is an immutable value configured with functional options when it
// is made. Reconfiguring with [Logger.Wrap] returns a new Logger and leaves the
// original untouched, so a Logger can be copied into any component and used
// from any goroutine. The zero Logger discards everything.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("loaded", slog.String("file", path))
//	logger.Error("load failed", slog.Any("error", err))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// Levels are [LevelTrace], [LevelDebug], [LevelInfo], [LevelWarn], and
// [LevelError]; formats are [FormatText] and [FormatJSON]. Either format can
// be colorized with [WithPretty].
//
// # Package-level Logger
//
// The package-level functions ([Debug], [InfoContext], ...) log through a
// default Logger writing to standard error. [Config] reconfigures it and
// [SetDefault] replaces it. Context-unaware variants use
// [DefaultContextProvider].
package log
