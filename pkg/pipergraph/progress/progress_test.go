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
	"testing"
	"time"
)

func TestFilesystemSinkAndSourceRoundtrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFilesystemSink(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	ev := Event{ID: "step-1", Token: "tok-abc", Payload: map[string]interface{}{"percent": float64(50)}}
	if err := sink.Emit(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	source, err := NewFilesystemSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := source.Watch(ctx, "tok-abc")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		if got.ID != ev.ID || got.Token != ev.Token {
			t.Fatalf("expected %+v, got %+v", ev, got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for replayed event")
	}
}

func TestFilesystemSourceFiltersByToken(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFilesystemSink(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	if err := sink.Emit(context.Background(), Event{ID: "a", Token: "other"}); err != nil {
		t.Fatal(err)
	}

	source, err := NewFilesystemSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	ch, err := source.Watch(ctx, "tok-abc")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("expected no events matching token, got %+v", ev)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestUnsupportedTransportsReturnConfigError(t *testing.T) {
	if _, err := NewBulletinSink("x"); err == nil {
		t.Fatal("expected an error for the unwired BULLETIN transport")
	}
	if _, err := NewRedisSink("x"); err == nil {
		t.Fatal("expected an error for the unwired REDIS transport")
	}
}

func TestSelectedChannelDefaultsToFilesystem(t *testing.T) {
	t.Setenv(ChannelTypeEnv, "")
	if got := SelectedChannel(); got != ChannelFilesystem {
		t.Fatalf("expected default %q, got %q", ChannelFilesystem, got)
	}
}
