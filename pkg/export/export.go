// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the pipeline's on-disk JSON state: one file per
// entity under <output_dir>/json/, a directory_map.json mirroring the
// parser's directory-to-file map, and the last_commit.json marker
// incremental updates diff against.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/fenec/pkg/graph"
)

// idFileName converts an entity ID into the JSON export.s file name: every
// "/" becomes ":" (already true of well-formed IDs, kept for paths that
// leak a "/" from a file_path-derived fragment), truncated to 50
// characters for directory IDs only.
func idFileName(id string, isDirectory bool) string {
	name := strings.ReplaceAll(id, "/", ":")
	if isDirectory && len(name) > 50 {
		name = name[:50]
	}
	return name + ".json"
}

// WriteEntities writes one JSON file per entity under <outputDir>/json/.
func WriteEntities(outputDir string, entities []graph.Entity) error {
	jsonDir := filepath.Join(outputDir, "json")
	if err := os.MkdirAll(jsonDir, 0o750); err != nil {
		return err
	}
	for _, e := range entities {
		isDir := e.Kind() == graph.BlockTypeDirectory
		path := filepath.Join(jsonDir, idFileName(e.ID(), isDir))
		data, err := json.MarshalIndent(e.ToMetadata(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o640); err != nil {
			return err
		}
	}
	return nil
}

// WriteDirectoryMap writes directory_map.json, mirroring the parser's
// directory_modules output.
func WriteDirectoryMap(outputDir string, directoryModules map[string][]string) error {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(directoryModules, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "directory_map.json"), data, 0o640)
}

// lastCommit is the shape of <output_dir>/last_commit.json.
type lastCommit struct {
	LastCommit string `json:"last_commit"`
}

// WriteLastCommit persists the VCS marker used for the next incremental run.
func WriteLastCommit(outputDir, marker string) error {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(lastCommit{LastCommit: marker}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "last_commit.json"), data, 0o640)
}

// ReadLastCommit reads the VCS marker from a previous run. Returns "" and no
// error if the file does not exist yet (first run).
func ReadLastCommit(outputDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, "last_commit.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var lc lastCommit
	if err := json.Unmarshal(data, &lc); err != nil {
		return "", err
	}
	return lc.LastCommit, nil
}
