// Package watcher reports changes to a fixed set of files, typically the
// user and project configuration files of a running server.
//
// fsnotify watches the parent directory of each file so that editors
// which replace a file (write to a temp file, then rename) are still
// observed. Events for other files in those directories are dropped.
// Bursts of events are coalesced by a Debouncer before delivery.
//
// Usage:
//
//	w, err := watcher.New([]string{userPath, projectPath}, watcher.Options{})
//	if err != nil {
//	    return err
//	}
//	go w.Run(ctx, func(events []watcher.FileEvent) {
//	    // reload configuration
//	})
package watcher
