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

package remote

import (
	"context"
	"fmt"
	"os"
)

// ResumableDownloadToFile downloads basePath/name from r to destPath,
// resuming from a sibling "<destPath>.part" file if one exists (spec
// §4.2's resumable download contract): the client writes to
// "<destPath>.part"; on retry its length becomes the offset passed to the
// backend so only the missing suffix is transferred. On success .part is
// atomically renamed to destPath.
func ResumableDownloadToFile(ctx context.Context, r Remote, destPath, basePath, name string) error {
	partPath := destPath + ".part"

	var offset int64
	if fi, err := os.Stat(partPath); err == nil {
		offset = fi.Size()
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("remote: stat %q: %w", partPath, err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("remote: open %q: %w", partPath, err)
	}

	ok, err := r.DownloadStream(ctx, f, basePath, name, offset)
	closeErr := f.Close()
	if err != nil {
		return &Error{Op: "download", BasePath: basePath, Cause: err}
	}
	if closeErr != nil {
		return closeErr
	}
	if !ok {
		return &Error{Op: "download", BasePath: basePath, Cause: fmt.Errorf("object %q not found", name)}
	}

	if err := os.Rename(partPath, destPath); err != nil {
		return fmt.Errorf("remote: finalizing download %q: %w", destPath, err)
	}
	return nil
}

// DownloadFromURLs tries each URL in order and returns the first successful
// download, or RemoteUnreachable-style *Error if none succeeded (spec
// §4.2's download failure semantics).
func DownloadFromURLs(ctx context.Context, reg *Registry, urls []URL, destPath string) error {
	var lastErr error
	for _, u := range urls {
		r, err := reg.ForURL(u)
		if err != nil {
			lastErr = err
			continue
		}
		name := u.BasePath
		base := ""
		if idx := lastSlash(name); idx >= 0 {
			base, name = name[:idx], name[idx+1:]
		}
		if err := ResumableDownloadToFile(ctx, r, destPath, base, name); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no URLs provided")
	}
	return &Error{Op: "download", Cause: fmt.Errorf("all remotes unreachable: %w", lastErr)}
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
