/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package presetpack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	applog "inkwash/internal/log"
)

const manifestName = "inkwash.pack.txt"

// maxEntryBytes bounds a single preset document read from a pack.
const maxEntryBytes = 1 << 20

// ExportPack zips every preset file in dir into destZip, with a small
// manifest at the root for quick human inspection.
func ExportPack(dir, destZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("presetpack"), "export").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return 0, errors.New("dir is required")
	}
	if strings.TrimSpace(destZip) == "" {
		return 0, errors.New("destZip is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read preset dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	zf, err := os.Create(destZip)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("inkwash preset pack\nCreated: %s\n\nEach .yaml/.yml/.json file holds one brush preset.\n",
		time.Now().Format(time.RFC3339))
	w, err := zw.Create(manifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	for _, e := range entries {
		if e.IsDir() || !IsPresetFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return added, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		fw, err := zw.Create(e.Name())
		if err != nil {
			return added, fmt.Errorf("add %s: %w", e.Name(), err)
		}
		if _, err := fw.Write(data); err != nil {
			return added, fmt.Errorf("write %s: %w", e.Name(), err)
		}
		added++
	}
	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("finish zip: %w", err)
	}
	l.Info("preset pack exported", slog.Int("files", added), slog.String("zip", destZip))
	return added, nil
}

// InstallPack extracts the preset files of packZip into dir. Archive
// folders are flattened. Existing files are not overwritten and documents
// that fail validation are skipped; neither is counted.
func InstallPack(dir, packZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("presetpack"), "install").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return 0, errors.New("dir is required")
	}
	if strings.TrimSpace(packZip) == "" {
		return 0, errors.New("packZip is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure preset dir: %w", err)
	}
	r, err := zip.OpenReader(packZip)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		if base == manifestName || !IsPresetFile(base) || strings.HasPrefix(base, ".") {
			continue
		}
		target := filepath.Join(dir, base)
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return installed, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if _, err := Parse(data, filepath.Ext(base)); err != nil {
			l.Warn("skip invalid preset", slog.String("entry", f.Name), slog.Any("err", err))
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return installed, fmt.Errorf("write %s: %w", target, err)
		}
		installed++
	}
	l.Info("preset pack installed", slog.Int("files", installed))
	return installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntryBytes {
		return nil, fmt.Errorf("entry larger than %d bytes", maxEntryBytes)
	}
	return data, nil
}
