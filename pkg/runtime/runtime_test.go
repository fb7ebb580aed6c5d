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

package runtime

import (
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/remote/fileremote"
)

func TestNewRegistersBuiltinRemoteSchemes(t *testing.T) {
	rt := New()

	r, err := rt.Remotes.CreateRemote("file", "/tmp/whatever", nil)
	if err != nil {
		t.Fatalf("expected the file scheme to be registered: %v", err)
	}
	if _, ok := r.(*fileremote.Backend); !ok {
		t.Fatalf("expected a *fileremote.Backend, got %T", r)
	}
}

func TestNewCodecsAndStagesAreIndependentPerCall(t *testing.T) {
	a := New()
	b := New()

	if a.Codecs == b.Codecs {
		t.Fatal("expected two Runtime values to own independent codec registries")
	}
	if a.Stages == b.Stages {
		t.Fatal("expected two Runtime values to own independent stage registries")
	}
}

func TestUnderfolderOptionsSharesRegistries(t *testing.T) {
	rt := New()
	opts := rt.UnderfolderOptions()

	if opts.Codecs != rt.Codecs || opts.Remotes != rt.Remotes || opts.Stages != rt.Stages {
		t.Fatal("expected UnderfolderOptions to share the Runtime's own registries")
	}
}
