package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is the quiet period after the last write before reloading.
const settle = 100 * time.Millisecond

// watchFile calls onChange each time the file at path is written
// or replaced, until ctx is done. onChange is always called from the
// goroutine running watchFile.
func watchFile(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// generators often replace the file instead of writing it,
	// so the directory is watched
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(settle)
			}
		case <-timer.C:
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watching %s: %v", path, err)
		}
	}
}
