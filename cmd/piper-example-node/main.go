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

// Command piper-example-node is a reference child process implementing
// the DAG node CLI contract (spec §4.9): one "--in" Underfolder input,
// one "--out" Underfolder output, copied through unchanged. It exists to
// exercise pipergraph.Executor end to end and to document the contract
// real nodes (delegated numerical/image processing, out of this
// module's scope) must honor.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/eyecan-ai/pipelime-sub000/pkg/pipergraph"
	"github.com/eyecan-ai/pipelime-sub000/pkg/pipergraph/progress"
	"github.com/eyecan-ai/pipelime-sub000/pkg/runtime"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
	"github.com/eyecan-ai/pipelime-sub000/pkg/underfolder"
)

// info is what ---piper_info prints: a structured description of this
// node's options (spec §4.9: "prints a structured description of its
// options on stdout and exits 0").
type info struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

func main() {
	in := flag.String("in", "", "input Underfolder root")
	out := flag.String("out", "", "output Underfolder root")
	piperInputs := flag.StringArray(pipergraph.FlagPiperInputs[2:], nil, "")
	piperOutputs := flag.StringArray(pipergraph.FlagPiperOutputs[2:], nil, "")
	piperToken := flag.String(pipergraph.FlagPiperToken[2:], "", "")
	piperInfo := flag.Bool(pipergraph.FlagPiperInfo[2:], false, "")
	flag.Parse()

	if *piperInfo {
		_ = json.NewEncoder(os.Stdout).Encode(info{Inputs: []string{"in"}, Outputs: []string{"out"}})
		os.Exit(0)
	}
	_ = piperInputs
	_ = piperOutputs

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "piper-example-node: --in and --out are required")
		os.Exit(2)
	}

	if err := run(*in, *out, *piperToken); err != nil {
		fmt.Fprintln(os.Stderr, "piper-example-node:", err)
		os.Exit(1)
	}
}

func run(inRoot, outRoot, token string) error {
	ctx := context.Background()
	rt := runtime.New()
	opts := rt.UnderfolderOptions()

	sink, err := connectProgress(token)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	reader, err := underfolder.Open(inRoot, opts)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inRoot, err)
	}

	samples, err := reader.All(ctx)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inRoot, err)
	}

	writer := underfolder.NewWriterFromReader(outRoot, reader, underfolder.WriterOptions{Codecs: opts.Codecs})
	for i, s := range samples {
		if err := sink.Emit(ctx, progress.Event{
			ID:    fmt.Sprintf("%d", i),
			Token: token,
			Payload: map[string]interface{}{
				"index": i,
				"total": len(samples),
			},
		}); err != nil {
			return fmt.Errorf("emitting progress: %w", err)
		}
	}

	return writer.Write(ctx, sequence.NewBase(samples))
}

func connectProgress(token string) (progress.Sink, error) {
	if token == "" {
		return progress.NullSink{}, nil
	}
	switch progress.SelectedChannel() {
	case progress.ChannelFilesystem:
		dir := os.Getenv("PIPELIME_PIPER_CHANNEL_DIR")
		if dir == "" {
			dir = os.TempDir()
		}
		return progress.NewFilesystemSink(dir)
	case progress.ChannelBulletin:
		return progress.NewBulletinSink(os.Getenv("PIPELIME_PIPER_CHANNEL_DSN"))
	case progress.ChannelRedis:
		return progress.NewRedisSink(os.Getenv("PIPELIME_PIPER_CHANNEL_DSN"))
	default:
		return progress.NullSink{}, nil
	}
}
