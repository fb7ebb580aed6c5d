/*
Copyright 2024 The Pipelime Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// FilesystemSink is the default FILESYSTEM transport's child side (spec
// §6): each Emit call atomically writes one numbered JSON file into Dir,
// serializing concurrent producers through distinct filenames rather
// than a single shared pipe (spec §5: "the FIFO transport serializes via
// a single consumer"; a real named pipe is POSIX-only and offers nothing
// a watched directory doesn't for a single-consumer queue, so a watched
// directory of event files stands in for the literal FIFO here).
type FilesystemSink struct {
	Dir string
	seq int64
}

// NewFilesystemSink creates dir (if needed) and returns a Sink writing
// into it.
func NewFilesystemSink(dir string) (*FilesystemSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("progress: filesystem sink: %w", err)
	}
	return &FilesystemSink{Dir: dir}, nil
}

func (s *FilesystemSink) Emit(ctx context.Context, ev Event) error {
	n := atomic.AddInt64(&s.seq, 1)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("progress: encode event: %w", err)
	}
	name := filepath.Join(s.Dir, fmt.Sprintf("%020d.json", n))
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("progress: write event: %w", err)
	}
	// Rename so the watcher only ever observes whole files (spec §7:
	// progress transport errors degrade rather than propagate, but a
	// half-written event file would corrupt the consumer silently).
	return os.Rename(tmp, name)
}

func (s *FilesystemSink) Close() error { return nil }

// FilesystemSource is the executor side: it watches dir for event files
// and decodes them into Events, filtering to the requested token.
type FilesystemSource struct {
	watcher *fsnotify.Watcher
	dir     string
}

// NewFilesystemSource starts watching dir.
func NewFilesystemSource(dir string) (*FilesystemSource, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("progress: filesystem source: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("progress: filesystem source: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("progress: filesystem source: %w", err)
	}
	return &FilesystemSource{watcher: w, dir: dir}, nil
}

// Watch replays any events already on disk for token, then streams new
// ones as fsnotify reports them, until ctx is cancelled.
func (s *FilesystemSource) Watch(ctx context.Context, token string) (<-chan Event, error) {
	out := make(chan Event, 16)

	existing, _ := filepath.Glob(filepath.Join(s.dir, "*.json"))
	sort.Strings(existing)

	go func() {
		defer close(out)
		for _, path := range existing {
			if ev, ok := readEvent(path, token); ok {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case fe, ok := <-s.watcher.Events:
				if !ok {
					return
				}
				if fe.Op&fsnotify.Create == 0 || filepath.Ext(fe.Name) != ".json" {
					continue
				}
				if ev, ok := readEvent(fe.Name, token); ok {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-s.watcher.Errors:
				if !ok || err != nil {
					return
				}
			}
		}
	}()

	return out, nil
}

func readEvent(path, token string) (Event, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, false
	}
	if token != "" && ev.Token != token {
		return Event{}, false
	}
	return ev, true
}

func (s *FilesystemSource) Close() error { return s.watcher.Close() }
