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
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URL is the parsed form of a pipelime remote URL:
//
//	<scheme>://<netloc>/<base_path>[?k=v:k=v...]
//
// matching spec §3/§6. Query values of the forms "True"/"False", decimal
// integers and decimal floats are decoded to their native Go types;
// everything else stays a string.
type URL struct {
	Scheme   string
	Netloc   string
	BasePath string
	Options  map[string]interface{}
}

func (u URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Netloc)
	b.WriteString("/")
	b.WriteString(u.BasePath)
	if len(u.Options) > 0 {
		b.WriteString("?")
		first := true
		// deterministic order
		keys := make([]string, 0, len(u.Options))
		for k := range u.Options {
			keys = append(keys, k)
		}
		sortStrings(keys)
		for _, k := range keys {
			if !first {
				b.WriteString(":")
			}
			first = false
			fmt.Fprintf(&b, "%s=%v", k, u.Options[k])
		}
	}
	return b.String()
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ParseURL parses a pipelime remote URL. The base path is percent-decoded.
func ParseURL(raw string) (URL, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return URL{}, fmt.Errorf("remote: malformed URL %q: missing scheme separator", raw)
	}
	pathAndQuery := rest
	netloc := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		netloc = rest[:idx]
		pathAndQuery = rest[idx+1:]
	} else {
		pathAndQuery = ""
	}

	basePath := pathAndQuery
	var rawQuery string
	if idx := strings.IndexByte(pathAndQuery, '?'); idx >= 0 {
		basePath = pathAndQuery[:idx]
		rawQuery = pathAndQuery[idx+1:]
	}

	decodedPath, err := url.PathUnescape(basePath)
	if err != nil {
		return URL{}, fmt.Errorf("remote: malformed URL %q: %w", raw, err)
	}

	u := URL{Scheme: scheme, Netloc: netloc, BasePath: decodedPath, Options: map[string]interface{}{}}
	if rawQuery != "" {
		for _, pair := range strings.Split(rawQuery, ":") {
			if pair == "" {
				continue
			}
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return URL{}, fmt.Errorf("remote: malformed query pair %q in URL %q", pair, raw)
			}
			u.Options[k] = decodeOptionValue(v)
		}
	}
	return u, nil
}

func decodeOptionValue(v string) interface{} {
	switch v {
	case "True":
		return true
	case "False":
		return false
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
