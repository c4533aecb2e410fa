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

package pkgjson

import (
	"bytes"
	"encoding/json"
	"os"

	"gitlab.com/tozd/go/errors"
)

// 📄 Document is a parsed package.json. Fields the toolkit does not model
// are kept as raw messages so a load/modify/save cycle never drops them.
type Document struct {
	fields map[string]json.RawMessage
}

// 🏗️ Load reads and parses a package.json file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading package.json: %w", err)
	}
	return Parse(data)
}

// Parse parses package.json bytes.
func Parse(data []byte) (*Document, error) {
	fields := map[string]json.RawMessage{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.Errorf("parsing package.json: %w", err)
	}
	return &Document{fields: fields}, nil
}

// Name returns the package name, or "" when absent.
func (d *Document) Name() string {
	return d.stringField("name")
}

// Version returns the package version, or "" when absent.
func (d *Document) Version() string {
	return d.stringField("version")
}

// Scripts returns the scripts map; absent means an empty map.
func (d *Document) Scripts() map[string]string {
	return d.mapField("scripts")
}

// Dependencies returns the dependencies map; absent means an empty map.
func (d *Document) Dependencies() map[string]string {
	return d.mapField("dependencies")
}

// 📝 SetName sets the package name.
func (d *Document) SetName(name string) {
	d.setString("name", name)
}

// 📝 SetScript adds or replaces one entry in scripts.
func (d *Document) SetScript(name, command string) {
	d.setMapEntry("scripts", name, command)
}

// 📝 SetDependency adds or replaces one entry in dependencies.
func (d *Document) SetDependency(name, version string) {
	d.setMapEntry("dependencies", name, version)
}

// 💾 Save writes the document with two-space indentation and a trailing
// newline, matching what package managers emit.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Errorf("writing package.json: %w", err)
	}
	return nil
}

// Marshal renders the document.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d.fields); err != nil {
		return nil, errors.Errorf("marshaling package.json: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *Document) stringField(key string) string {
	raw, ok := d.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (d *Document) mapField(key string) map[string]string {
	m := map[string]string{}
	if raw, ok := d.fields[key]; ok {
		_ = json.Unmarshal(raw, &m)
	}
	return m
}

func (d *Document) setString(key, value string) {
	raw, _ := json.Marshal(value)
	d.fields[key] = raw
}

func (d *Document) setMapEntry(key, name, value string) {
	m := d.mapField(key)
	m[name] = value
	raw, _ := json.Marshal(m)
	d.fields[key] = raw
}
