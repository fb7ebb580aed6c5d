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

// Package progress implements spec §4.9's optional, pluggable progress
// channel: a child command that accepts a ---piper_token connects to one
// of the supported transports and emits structured {id, token, payload}
// events. Transport selection is via the PIPELIME_PIPER_CHANNEL_TYPE
// environment variable (spec §6); FILESYSTEM is the default so no
// external service is required to run a DAG.
package progress

import (
	"context"
	"os"
)

// ChannelTypeEnv is the environment variable selecting a transport (spec §6).
const ChannelTypeEnv = "PIPELIME_PIPER_CHANNEL_TYPE"

// Transport names (spec §6).
const (
	ChannelFilesystem = "FILESYSTEM"
	ChannelBulletin   = "BULLETIN"
	ChannelRedis      = "REDIS"
)

// Event is one structured progress report.
type Event struct {
	ID      string
	Token   string
	Payload map[string]interface{}
}

// Sink is the child-process side of the channel: it emits events tagged
// with the run's execution token.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
	Close() error
}

// Source is the executor side of the channel: it watches for events
// emitted under a given token.
type Source interface {
	Watch(ctx context.Context, token string) (<-chan Event, error)
	Close() error
}

// NullSink drops every event; it is the default when no token/transport
// is configured (Design Notes §9: "a ProgressSink interface with a null
// implementation as the default").
type NullSink struct{}

func (NullSink) Emit(context.Context, Event) error { return nil }
func (NullSink) Close() error                       { return nil }

// SelectedChannel returns the transport named by PIPELIME_PIPER_CHANNEL_TYPE,
// defaulting to FILESYSTEM.
func SelectedChannel() string {
	if v := os.Getenv(ChannelTypeEnv); v != "" {
		return v
	}
	return ChannelFilesystem
}
