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

package underfolder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eyecan-ai/pipelime-sub000/pkg/stage"
)

const stagesFileName = "stages"

// loadStagesPlugin decodes a private _stages.yml file (a single stage
// config mapping, or a list of them composed left to right — spec §4.6)
// and builds the corresponding stage.Stage. It also returns the raw bytes
// so a writer built from this reader's template can re-emit the identical
// document unmodified (supplement #5 of SPEC_FULL.md).
func loadStagesPlugin(path string, registry *stage.Registry) (stage.Stage, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var decoded interface{}
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, nil, fmt.Errorf("underfolder: decoding %s: %w", path, err)
	}
	st, err := buildStageFromYAML(decoded, registry)
	if err != nil {
		return nil, nil, err
	}
	return st, raw, nil
}

func buildStageFromYAML(decoded interface{}, registry *stage.Registry) (stage.Stage, error) {
	switch v := decoded.(type) {
	case []interface{}:
		var stages []stage.Stage
		for _, item := range v {
			cfg, err := toStageConfig(item)
			if err != nil {
				return nil, err
			}
			st, err := registry.Build(cfg)
			if err != nil {
				return nil, err
			}
			stages = append(stages, st)
		}
		return stage.Compose{Stages: stages}, nil
	case map[string]interface{}, map[interface{}]interface{}:
		cfg, err := toStageConfig(v)
		if err != nil {
			return nil, err
		}
		return registry.Build(cfg)
	default:
		return nil, fmt.Errorf("underfolder: stages plugin: unexpected document shape %T", decoded)
	}
}

func toStageConfig(v interface{}) (stage.Config, error) {
	switch m := v.(type) {
	case map[string]interface{}:
		return stage.Config(m), nil
	case map[interface{}]interface{}:
		out := make(stage.Config, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("underfolder: stages plugin: non-string key %v", k)
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("underfolder: stages plugin: expected a mapping, got %T", v)
	}
}
