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

package graph

import (
	"encoding/json"

	"github.com/kraklabs/fenec/internal/errors"
)

// entityEnvelope wraps a serialized entity with its kind discriminator so
// UnmarshalEntity can pick the concrete type back out.
type entityEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalEntity serializes e, every field included, for stores that persist
// entities as a single blob. Unlike ToMetadata this is lossless: imports,
// dependencies, and resolution state all survive the round trip.
func MarshalEntity(e Entity) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.InvalidEntityf("encode entity %q: %v", e.ID(), err)
	}
	return json.Marshal(entityEnvelope{Kind: e.Kind().String(), Data: data})
}

// UnmarshalEntity is MarshalEntity's inverse.
func UnmarshalEntity(b []byte) (Entity, error) {
	var env entityEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, errors.InvalidEntityf("decode entity envelope: %v", err)
	}

	var e Entity
	switch env.Kind {
	case "DIRECTORY":
		e = &DirectoryEntity{}
	case "MODULE":
		e = &ModuleEntity{}
	case "CLASS":
		e = &ClassEntity{}
	case "FUNCTION":
		e = &FunctionEntity{}
	case "STANDALONE_BLOCK":
		e = &StandaloneEntity{}
	default:
		return nil, errors.InvalidEntityf("entity envelope has unknown kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, e); err != nil {
		return nil, errors.InvalidEntityf("decode %s entity: %v", env.Kind, err)
	}
	return e, nil
}
