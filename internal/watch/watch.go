// Package watch reports changes to a fixed set of input files.
package watch

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the directories holding its files and reports writes
// to the files themselves. Watching directories keeps files that editors
// replace by rename under watch.
type Watcher struct {
	w       *fsnotify.Watcher
	files   map[string]bool
	changes chan string
	errs    chan error
}

// New watches files. Paths on the Changes channel are absolute.
func New(files []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{w: w, files: map[string]bool{}, changes: make(chan string, 64), errs: make(chan error, 1)}
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.files[abs] = true
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := w.Add(dir); err != nil {
				w.Close()
				return nil, err
			}
			dirs[dir] = true
		}
	}
	go fw.loop()
	return fw, nil
}

func (fw *Watcher) loop() {
	defer close(fw.changes)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if name := filepath.Clean(ev.Name); fw.files[name] {
				fw.changes <- name
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.errs <- err:
			default:
			}
		}
	}
}

// Changes delivers the path of each written input. It is closed by Close.
func (fw *Watcher) Changes() <-chan string { return fw.changes }

// Errors delivers watch errors; errors arriving while one is pending are
// dropped.
func (fw *Watcher) Errors() <-chan error { return fw.errs }

// Len returns the number of watched files.
func (fw *Watcher) Len() int { return len(fw.files) }

func (fw *Watcher) Close() error { return fw.w.Close() }
