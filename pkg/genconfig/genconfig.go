// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package genconfig

import (
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🧪 TestRunnerConfig is the generated configuration for the repository's
// test runner.
type TestRunnerConfig struct {
	Timeout  string            `yaml:"timeout,omitempty"`
	Parallel int               `yaml:"parallel,omitempty"`
	Include  []string          `yaml:"include,omitempty"`
	Exclude  []string          `yaml:"exclude,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
	Reporter string            `yaml:"reporter,omitempty"`
}

// 📋 Task is one named task for the task runner.
type Task struct {
	Desc string            `yaml:"desc,omitempty"`
	Cmd  string            `yaml:"cmd"`
	Deps []string          `yaml:"deps,omitempty"`
	Dir  string            `yaml:"dir,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// 📋 TaskRunnerConfig is the generated configuration for the repository's
// task runner.
type TaskRunnerConfig struct {
	Version string          `yaml:"version"`
	Tasks   map[string]Task `yaml:"tasks"`
}

// 💾 WriteTestRunnerConfig renders the test-runner config as YAML.
func WriteTestRunnerConfig(path string, cfg TestRunnerConfig) error {
	return writeYAML(path, cfg)
}

// 💾 WriteTaskRunnerConfig renders the task-runner config as YAML. An empty
// version defaults to "3".
func WriteTaskRunnerConfig(path string, cfg TaskRunnerConfig) error {
	if cfg.Version == "" {
		cfg.Version = "3"
	}
	if len(cfg.Tasks) == 0 {
		return errors.New("genconfig: at least one task is required")
	}
	return writeYAML(path, cfg)
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Errorf("writing config: %w", err)
	}
	return nil
}
