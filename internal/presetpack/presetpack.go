/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package presetpack loads user brush presets from YAML or JSON files and
// installs zipped preset packs. Every document is validated against an
// embedded JSON schema before it is decoded; values are then clamped into
// the brush's documented ranges.
package presetpack

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"inkwash/internal/brush"
	applog "inkwash/internal/log"
)

//go:embed preset.schema.json
var schemaJSON []byte

// ErrInvalidPreset marks a document that fails schema validation.
var ErrInvalidPreset = errors.New("invalid preset")

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("presetpack: embedded schema: %v", err))
	}
	return s
}

// Schema returns the embedded JSON schema document.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// IsPresetFile reports whether name has a preset extension.
func IsPresetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Parse validates and decodes one preset document. ext selects the codec:
// ".json" for JSON, anything else for YAML.
func Parse(data []byte, ext string) (brush.Preset, error) {
	var doc any
	isJSON := strings.EqualFold(ext, ".json")
	if isJSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return brush.Preset{}, fmt.Errorf("%w: decode json: %v", ErrInvalidPreset, err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return brush.Preset{}, fmt.Errorf("%w: decode yaml: %v", ErrInvalidPreset, err)
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return brush.Preset{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return brush.Preset{}, fmt.Errorf("%w: %s", ErrInvalidPreset, strings.Join(msgs, "; "))
	}

	var p brush.Preset
	if isJSON {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return brush.Preset{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return p.Clamped(), nil
}

// Marshal encodes p as a YAML preset document.
func Marshal(p brush.Preset) ([]byte, error) {
	return yaml.Marshal(p.Clamped())
}

// LoadFile reads and validates one preset file.
func LoadFile(path string) (brush.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return brush.Preset{}, fmt.Errorf("read preset: %w", err)
	}
	p, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return brush.Preset{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// LoadDir loads every preset file in dir, sorted by name. Invalid files are
// skipped and reported together in the returned error; a missing dir is
// empty, not an error.
func LoadDir(dir string) ([]brush.Preset, error) {
	l := applog.WithOperation(applog.WithComponent("presetpack"), "load").With(slog.String("dir", dir))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preset dir: %w", err)
	}
	var (
		out  []brush.Preset
		errs []error
	)
	for _, e := range entries {
		if e.IsDir() || !IsPresetFile(e.Name()) {
			continue
		}
		p, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			l.Warn("skip preset", slog.String("file", e.Name()), slog.Any("err", err))
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	l.Debug("presets loaded", slog.Int("count", len(out)), slog.Int("rejected", len(errs)))
	return out, errors.Join(errs...)
}

// Resolve finds a preset by name: built-ins first, then files in dir. A
// name that points at an existing preset file is loaded directly.
func Resolve(name, dir string) (brush.Preset, error) {
	if p, ok := brush.Lookup(name); ok {
		return p, nil
	}
	if IsPresetFile(name) {
		if _, err := os.Stat(name); err == nil {
			return LoadFile(name)
		}
	}
	if dir != "" {
		ps, _ := LoadDir(dir)
		for _, p := range ps {
			if strings.EqualFold(p.Name, name) {
				return p, nil
			}
		}
	}
	return brush.Preset{}, fmt.Errorf("unknown preset %q", name)
}
