package domwatch

import "errors"

// ErrNoChannels is returned by ChangeWatcher.Start when neither insertion
// observation nor the fragment event could be subscribed. Content present
// at load is still rendered by the initial scan.
var ErrNoChannels = errors.New("domwatch: no change channel available")

// ErrAlreadyStarted is returned by a second ChangeWatcher.Start.
var ErrAlreadyStarted = errors.New("domwatch: watcher already started")

// ErrForeignScope is returned when an observation scope does not belong to
// the page being observed.
var ErrForeignScope = errors.New("domwatch: scope does not belong to this page")
