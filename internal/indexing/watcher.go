package indexing

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lmi/internal/config"
	"github.com/standardbeagle/lmi/internal/debug"
	"github.com/standardbeagle/lmi/internal/types"
)

// FileWatcher monitors tracked workspace folders and feeds debounced file
// events to the coordinator.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	config      *config.Config
	coordinator *Coordinator
	debouncer   *eventDebouncer
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	// Watch mode statistics
	eventsProcessed int64
	errorCount      int64
	lastEventTime   time.Time
	statsMu         sync.RWMutex
}

// FileEventType represents the type of file system event
type FileEventType int

const (
	FileEventCreate FileEventType = iota
	FileEventWrite
	FileEventRemove
	FileEventRename
)

// NewFileWatcher creates a new file watcher delivering events to the
// coordinator.
func NewFileWatcher(cfg *config.Config, coordinator *Coordinator) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	debounceMs := cfg.Index.WatchDebounceMs
	if debounceMs <= 0 {
		debounceMs = types.DefaultWatchDebounceMs
	}

	fw := &FileWatcher{
		watcher:     watcher,
		config:      cfg,
		coordinator: coordinator,
		debouncer:   newEventDebouncer(time.Duration(debounceMs) * time.Millisecond),
		ctx:         ctx,
		cancel:      cancel,
	}
	fw.debouncer.setSink(fw)
	return fw, nil
}

// Start begins watching the given workspace folder.
func (fw *FileWatcher) Start(folder string) error {
	debug.LogWatch("Starting file watcher for folder: %s\n", folder)

	if err := fw.addWatches(folder); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", folder, err)
	}

	fw.wg.Add(1)
	go fw.processEvents()

	fw.wg.Add(1)
	go fw.debouncer.run(fw.ctx, &fw.wg)

	debug.LogWatch("File watcher started\n")
	return nil
}

// Stop stops the file watcher.
func (fw *FileWatcher) Stop() error {
	fw.cancel()

	if err := fw.watcher.Close(); err != nil {
		log.Printf("Error closing fsnotify watcher: %v", err)
	}

	fw.wg.Wait()
	return nil
}

// addWatches recursively adds watches to all relevant directories
func (fw *FileWatcher) addWatches(root string) error {
	// Track visited directories to prevent infinite loops from symlink cycles
	visitedDirs := make(map[string]bool)

	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if !info.IsDir() {
			return nil
		}

		realPath, err := filepath.EvalSymlinks(p)
		if err != nil {
			return nil // Skip symlinks that can't be resolved
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if fw.shouldIgnoreDirectory(p) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(p); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", p, err)
			return nil // Continue despite errors
		}
		return nil
	})
}

// shouldIgnoreDirectory checks a directory against the exclusion globs.
func (fw *FileWatcher) shouldIgnoreDirectory(p string) bool {
	for _, pattern := range fw.config.Exclude {
		dirPattern := strings.TrimSuffix(pattern, "/**")

		if matched, _ := filepath.Match(dirPattern, filepath.Base(p)); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, filepath.ToSlash(p)); matched {
			return true
		}
	}
	return false
}

// processEvents processes file system events from fsnotify
func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
			fw.incrementStats(0, 1)
		}
	}
}

// handleEvent classifies a single file system event and hands it to the
// debouncer. A Remove or Rename cannot be stat'ed, so it passes through as-is;
// the coordinator decides file versus directory from the path shape.
func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	p := event.Name
	debug.LogWatch("received event %v for path %s\n", event.Op, p)

	info, err := os.Stat(p)
	if err != nil {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			fw.debouncer.addEvent(p, FileEventRemove)
		}
		return
	}

	if info.IsDir() {
		// A new directory needs its own watch before events inside it can
		// be seen.
		if event.Op&fsnotify.Create != 0 && !fw.shouldIgnoreDirectory(p) {
			if err := fw.watcher.Add(p); err != nil {
				log.Printf("Warning: failed to add watch for new directory %s: %v", p, err)
			} else {
				debug.LogWatch("added watch for new directory: %s\n", p)
			}
		}
		return
	}

	if !fw.shouldProcessPath(p) {
		debug.LogWatch("ignoring file %s (doesn't match patterns)\n", p)
		return
	}

	var eventType FileEventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = FileEventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = FileEventWrite
	case event.Op&fsnotify.Remove != 0:
		eventType = FileEventRemove
	case event.Op&fsnotify.Rename != 0:
		eventType = FileEventRename
	default:
		return // Ignore other events
	}

	fw.debouncer.addEvent(p, eventType)
}

// shouldProcessPath checks whether a live file path is of interest: source
// files and project configuration files, excluding dependency directories.
func (fw *FileWatcher) shouldProcessPath(p string) bool {
	slashed := filepath.ToSlash(p)
	if !types.IsSourceFile(slashed) && !types.IsConfigFile(slashed) && path.Ext(slashed) != "" {
		return false
	}
	for _, pattern := range fw.config.Exclude {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return false
		}
	}
	return true
}

// dispatch routes one debounced event to the coordinator.
func (fw *FileWatcher) dispatch(p string, eventType FileEventType) {
	switch eventType {
	case FileEventCreate:
		fw.coordinator.NotifyFileCreated(p)
	case FileEventRemove, FileEventRename:
		fw.coordinator.NotifyFileDeleted(p)
	case FileEventWrite:
		fw.coordinator.NotifyFileChanged(p)
	}
	fw.incrementStats(1, 0)
}

// incrementStats updates watch mode statistics
func (fw *FileWatcher) incrementStats(events int64, errors int64) {
	fw.statsMu.Lock()
	defer fw.statsMu.Unlock()

	fw.eventsProcessed += events
	fw.errorCount += errors
	fw.lastEventTime = time.Now()
}

// GetStats returns current watch mode statistics
func (fw *FileWatcher) GetStats() WatchStats {
	fw.statsMu.RLock()
	defer fw.statsMu.RUnlock()

	return WatchStats{
		EventsProcessed: fw.eventsProcessed,
		ErrorCount:      fw.errorCount,
		LastEventTime:   fw.lastEventTime,
		IsActive:        fw.ctx.Err() == nil,
	}
}

// WatchStats contains statistics about file watching operations
type WatchStats struct {
	EventsProcessed int64
	ErrorCount      int64
	LastEventTime   time.Time
	IsActive        bool
}

// eventDebouncer batches file events to avoid excessive processing
type eventDebouncer struct {
	events   map[string]FileEventType
	mutex    sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	sink     *FileWatcher
}

// newEventDebouncer creates a new event debouncer
func newEventDebouncer(debounce time.Duration) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]FileEventType),
		debounce: debounce,
	}
}

func (d *eventDebouncer) setSink(fw *FileWatcher) {
	d.sink = fw
}

// addEvent adds a file event to be debounced. The latest event for a path
// wins.
func (d *eventDebouncer) addEvent(p string, eventType FileEventType) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.events[p] = eventType

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

// run keeps the debouncer accounted for until shutdown.
func (d *eventDebouncer) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	<-ctx.Done()

	d.mutex.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mutex.Unlock()

	// DON'T flush on shutdown - dispatch acquires coordinator locks that may
	// be held by the shutdown sequence. Events pending at shutdown are
	// acceptable to lose since the index is being torn down anyway.
}

// flush processes all accumulated events. Removals run first so a rapid
// delete-and-recreate of the same directory settles into the recreated state.
func (d *eventDebouncer) flush() {
	d.mutex.Lock()
	events := d.events
	d.events = make(map[string]FileEventType)
	d.mutex.Unlock()

	if len(events) == 0 {
		return
	}

	debug.LogWatch("processing %d debounced file events\n", len(events))

	var creates, removes, changes []string
	for p, eventType := range events {
		switch eventType {
		case FileEventCreate:
			creates = append(creates, p)
		case FileEventRemove, FileEventRename:
			removes = append(removes, p)
		case FileEventWrite:
			changes = append(changes, p)
		}
	}

	for _, p := range removes {
		d.sink.dispatch(p, FileEventRemove)
	}
	for _, p := range changes {
		d.sink.dispatch(p, FileEventWrite)
	}
	for _, p := range creates {
		d.sink.dispatch(p, FileEventCreate)
	}
}
