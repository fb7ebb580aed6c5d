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

package fileremote

import (
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/internal/remotetest"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
)

func TestFileremoteConformance(t *testing.T) {
	remotetest.Test(t, func(t *testing.T) (remote.Remote, func()) {
		b, err := New(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		return b, nil
	})
}

func TestFactoryRejectsEmptyNetloc(t *testing.T) {
	if _, err := Factory("", nil); err == nil {
		t.Fatal("expected an error for an empty netloc")
	}
}
