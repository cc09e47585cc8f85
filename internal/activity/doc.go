// Package activity keeps the client's activity log.
//
// Stores log swallowed failures such as a rolled-back vote or a stale detail
// after an edit. Open points those logs at <state_dir>/overflow.log,
// optionally mirrored to stderr, and Tail reads the newest lines back for the
// "log" command:
//
//	logger, closer, err := activity.Open(cfg.StateDir, os.Stderr)
//	lines, err := activity.Tail(activity.Path(cfg.StateDir), 50)
//
// Tail scans the file once and keeps a ring buffer of maxLines entries, so
// memory stays bounded for large logs. Lines longer than 1 MiB abort the
// read with an error.
package activity
