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

package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclRule struct {
		Old      string `hcl:"old,optional"`
		New      string `hcl:"new,optional"`
		Pattern  string `hcl:"pattern,optional"`
		Template string `hcl:"template,optional"`
	}
	type hclRewrite struct {
		Name           string    `hcl:"name,label"`
		Globs          []string  `hcl:"globs"`
		MaxMatchLength int       `hcl:"max_match_length,optional"`
		Rules          []hclRule `hcl:"rule,block"`
	}
	type hclConfig struct {
		Rewrites []hclRewrite `hcl:"rewrite,block"`
		Watch    *struct {
			Timeout string `hcl:"timeout,optional"`
		} `hcl:"watch,block"`
		Install *struct {
			Dir      string   `hcl:"dir,optional"`
			Packages []string `hcl:"packages,optional"`
		} `hcl:"install,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{}
	for _, job := range hclCfg.Rewrites {
		out := RewriteJob{
			Name:           job.Name,
			Globs:          job.Globs,
			MaxMatchLength: job.MaxMatchLength,
		}
		for _, r := range job.Rules {
			out.Rules = append(out.Rules, Rule{
				Old:      r.Old,
				New:      r.New,
				Pattern:  r.Pattern,
				Template: r.Template,
			})
		}
		cfg.Rewrites = append(cfg.Rewrites, out)
	}
	if hclCfg.Watch != nil {
		cfg.Watch = &WatchArgs{Timeout: hclCfg.Watch.Timeout}
	}
	if hclCfg.Install != nil {
		cfg.Install = &InstallArgs{
			Dir:      hclCfg.Install.Dir,
			Packages: hclCfg.Install.Packages,
		}
	}

	return cfg, nil
}
