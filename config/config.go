// Copyright 2026 The EmbedDB Authors.
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

// Package config loads the ambient engine-wide settings: allocator
// page size, B+-tree node size, durability mode, and the query
// engine's worker-pool size.
package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Durability selects whether a Group's backing store is a memory-only
// allocator or a slab-allocator-backed file (spec §4.8's "memory-only
// mode").
type Durability string

const (
	DurabilityMemory  Durability = "memory"
	DurabilityOnDisk  Durability = "durable"
)

// Options are the engine-wide knobs a deployment may override via a
// YAML file; every field has a documented default so a zero-value
// Options is always usable.
type Options struct {
	// AllocatorPageSize is the granularity the slab allocator grows its
	// backing file by (spec §6: "the file grows by whole pages").
	AllocatorPageSize int `yaml:"allocator_page_size"`

	// BPNodeSize is the B+-tree leaf/inner fan-out, BPNODE_SIZE in
	// spec.md's testable properties (§8).
	BPNodeSize int `yaml:"bpnode_size"`

	// Durability selects memory-only vs on-disk (durable) mode.
	Durability Durability `yaml:"durability"`

	// QueryWorkers bounds the query engine's worker-pool size for
	// RunParallel (spec §4.7, §5).
	QueryWorkers int `yaml:"query_workers"`
}

// Default returns the engine's out-of-the-box settings.
func Default() Options {
	return Options{
		AllocatorPageSize: 1 << 20, // 1 MiB
		BPNodeSize:        1000,    // spec.md's BPNODE_SIZE
		Durability:        DurabilityMemory,
		QueryWorkers:      4,
	}
}

// Load reads a YAML file at path and overlays it on Default(), so an
// incomplete config file only overrides the fields it names.
func Load(path string) (Options, error) {
	opts := Default()
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(err, "config: read file")
	}
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return opts, errors.Wrap(err, "config: parse yaml")
	}
	return opts, nil
}
