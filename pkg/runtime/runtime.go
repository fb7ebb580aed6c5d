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

// Package runtime assembles the per-run value a pipelime process carries
// explicitly through its call graph: the codec, remote-scheme, and stage
// registries (spec's Design Notes §9, "Global singleton and process-wide
// state" — a per-run runtime value carried explicitly through the call
// graph rather than module-level mutable state). Nothing in this package
// is a package-level variable; every registry lives on a *Runtime value
// a caller constructs once per process or per test.
package runtime

import (
	"github.com/eyecan-ai/pipelime-sub000/pkg/codec"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote/fileremote"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote/s3remote"
	"github.com/eyecan-ai/pipelime-sub000/pkg/stage"
	"github.com/eyecan-ai/pipelime-sub000/pkg/underfolder"
)

// Runtime bundles the three registries every subsystem from pkg/codec
// through pkg/pipergraph needs, so a caller constructs one Runtime and
// threads it everywhere instead of reaching for package-level state.
type Runtime struct {
	Codecs  *codec.Registry
	Remotes *remote.Registry
	Stages  *stage.Registry
}

// New returns a Runtime with every built-in codec and stage kind
// registered (codec.NewRegistry and stage.NewRegistry already do this)
// plus the "file" and "s3" remote schemes registered, the two backends
// shipped in this module (pkg/remote/fileremote, pkg/remote/s3remote).
// Additional schemes can be registered on the returned Runtime.Remotes
// before it is used.
func New() *Runtime {
	remotes := remote.NewRegistry()
	remotes.RegisterScheme("file", fileremote.Factory)
	remotes.RegisterScheme("s3", s3remote.Factory)

	return &Runtime{
		Codecs:  codec.NewRegistry(),
		Remotes: remotes,
		Stages:  stage.NewRegistry(),
	}
}

// UnderfolderOptions adapts the Runtime's registries to
// underfolder.Options, so every Underfolder reader/writer opened during a
// run shares the same registries rather than defaulting to its own.
func (rt *Runtime) UnderfolderOptions() underfolder.Options {
	return underfolder.Options{
		Codecs:  rt.Codecs,
		Remotes: rt.Remotes,
		Stages:  rt.Stages,
	}
}
