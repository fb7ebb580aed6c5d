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

// Command piper-run parses a DAG configuration file (spec §4.8/§6),
// expands its foreach blocks and placeholder DSL (spec §4.8), lays the
// result out into execution layers, and runs every node's command as a
// child process (spec §4.9).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"

	"github.com/eyecan-ai/pipelime-sub000/internal/cliui"
	"github.com/eyecan-ai/pipelime-sub000/pkg/pipergraph"
	"github.com/eyecan-ai/pipelime-sub000/pkg/piperconfig"
	"github.com/eyecan-ai/pipelime-sub000/pkg/runtime"
)

type narrationLogger struct{}

func (narrationLogger) Printf(format string, v ...interface{}) {
	cliui.Info(format, v...)
}

func main() {
	configPath := flag.StringP("config", "c", "", "path to the DAG configuration YAML file")
	noColor := flag.Bool("no-color", false, "disable color output")
	flag.Parse()

	cliui.SetNoColor(*noColor)

	if *configPath == "" {
		cliui.Error("missing required --config flag")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath); err != nil {
		cliui.Error("%v", err)
		os.Exit(1)
	}
	cliui.Success("run complete")
}

func run(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("piper-run: reading %s: %w", configPath, err)
	}

	cfg, err := piperconfig.Parse(data)
	if err != nil {
		return fmt.Errorf("piper-run: %w", err)
	}

	nodes, err := piperconfig.Expand(cfg)
	if err != nil {
		return fmt.Errorf("piper-run: %w", err)
	}

	rt := runtime.New()
	executor := pipergraph.NewExecutor(rt.UnderfolderOptions())
	executor.Logger = narrationLogger{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cliui.Header(fmt.Sprintf("piper-run: %s (%d nodes)", cfg.ParserName, len(nodes)))
	return executor.Run(ctx, nodes)
}
