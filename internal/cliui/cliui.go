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

// Package cliui provides the small set of color-coded console helpers
// the piper-* command-line entry points share, generalized from
// kraklabs-cie's internal/ui package down to what a DAG runner's
// narration actually needs: per-layer progress, success, and failure.
package cliui

import "github.com/fatih/color"

var (
	cyan  = color.New(color.FgCyan)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
	bold  = color.New(color.Bold)
)

// SetNoColor disables color output, honored by the --no-color flag in
// addition to fatih/color's own NO_COLOR environment variable handling.
func SetNoColor(noColor bool) {
	color.NoColor = noColor
}

// Info prints a cyan informational line.
func Info(format string, args ...any) {
	_, _ = cyan.Printf(format+"\n", args...)
}

// Success prints a green success line.
func Success(format string, args ...any) {
	_, _ = green.Printf("✓ "+format+"\n", args...)
}

// Error prints a red failure line.
func Error(format string, args ...any) {
	_, _ = red.Printf("✗ "+format+"\n", args...)
}

// Header prints a bold section header.
func Header(text string) {
	_, _ = bold.Println(text)
}
