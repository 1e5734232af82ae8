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

// Package group implements Group: the top-level container of named
// tables plus free-list and version metadata, the unit of commit
// (spec §4.5's data flow: "... Column <-> Table <-> Group").
package group

import (
	"bytes"
	"encoding/gob"
	"os"
	"sync"

	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/metrics"
	"github.com/tidwell-embeddb/embeddb/schema"
	"github.com/tidwell-embeddb/embeddb/table"
)

// Group is the top-level container of spec §2's component 10: named
// tables, a shared arena, and the version counter commits advance.
type Group struct {
	writeMu sync.Mutex

	mu       sync.Mutex
	tables   map[string]*table.Table
	order    []string
	version  uint64
	arena    *array.Arena
	leafSize int

	// GenerationID stamps this Group's lifetime (spec.md §1's "shipping
	// a changeset byte stream to another instance" needs a way to tell
	// two files that happen to share a path history apart).
	GenerationID uuid.UUID

	// Metrics is optional; a nil Metrics makes every Observe* call a
	// no-op, so a Group with no metrics registered behaves exactly as
	// it did before metrics existed.
	Metrics *metrics.Metrics

	// valid goes false if Open/OpenMem had to drop content it could not
	// faithfully restore (a Subtable cell or any Mixed cell; see
	// table.Snapshot's documented exclusion). IsValid reports it.
	valid bool

	log *logrus.Entry
}

// Mode selects how Open treats a missing file.
type Mode int

const (
	// ModeReadWrite creates an empty Group if path does not exist.
	ModeReadWrite Mode = iota
	// ModeReadOnly fails with errs.ErrIO if path does not exist.
	ModeReadOnly
)

const (
	catalogMagic      = "EMDB"
	catalogVersion    = 1
	maxCatalogVersion = 1
)

// catalog is the on-wire form Write/WriteToMem produce and Open/OpenMem
// consume: every table's logical content (table.Snapshot), in creation
// order, plus the version counter.
type catalog struct {
	Order   []string
	Tables  map[string]*table.Snapshot
	Version uint64
}

// New opens an in-memory Group backed by a[n] fresh DefaultAllocator
// arena. A durable Group is opened the same way over an
// alloc.SlabAllocator (see alloc.OpenSlab); Group itself does not care
// which Allocator backs its arena.
func New(a alloc.Allocator, leafSize int) *Group {
	return &Group{
		tables:       make(map[string]*table.Table),
		arena:        array.NewArena(a),
		leafSize:     leafSize,
		GenerationID: uuid.NewV4(),
		valid:        true,
		log:          logrus.WithField("component", "group"),
	}
}

// Open loads the Group persisted at path, or (ModeReadWrite only)
// returns a fresh empty Group backed by an in-memory arena if no file
// exists yet there — the first Write(path) call then creates it.
func Open(path string, mode Mode) (*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mode == ModeReadOnly {
				return nil, errs.ErrIO.New(err.Error())
			}
			return New(alloc.NewDefault(), 0), nil
		}
		return nil, errs.ErrIO.New(err.Error())
	}
	return OpenMem(data)
}

// OpenMem reconstructs a Group from a buffer previously produced by
// WriteToMem, replaying every table's snapshot through the public
// table API (table.New, RestoreRows) so backlink bookkeeping comes out
// exactly as it would from live writes, rather than being serialized
// and blindly trusted.
func OpenMem(data []byte) (*Group, error) {
	cat, err := decodeCatalog(data)
	if err != nil {
		return nil, err
	}

	g := New(alloc.NewDefault(), 0)

	// Phase 1: materialize every table's spec and grow it to its
	// snapshot's row count, so every link target a phase-2 replay needs
	// already exists, regardless of which table is restored first.
	for _, name := range cat.Order {
		snap := cat.Tables[name]
		t, err := g.AddTable(name, snap.Spec)
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(snap.Rows); i++ {
			if _, err := t.AddEmptyRow(); err != nil {
				return nil, err
			}
		}
	}

	// Phase 2: replay cell content now that every sibling table has
	// enough rows for Link/LinkList targets to resolve.
	for _, name := range cat.Order {
		snap := cat.Tables[name]
		t, _ := g.TableByName(name)
		if err := t.RestoreRows(snap); err != nil {
			return nil, err
		}
		if snapshotIsLossy(snap) {
			g.valid = false
		}
		for ci, c := range snap.Spec.Columns {
			if c.Indexed {
				if err := t.AddSearchIndex(ci); err != nil {
					return nil, err
				}
			}
		}
	}

	g.version = cat.Version
	return g, nil
}

func snapshotIsLossy(snap *table.Snapshot) bool {
	for _, row := range snap.Rows {
		for _, cell := range row {
			if cell.Kind == table.CellUnsupported {
				return true
			}
		}
	}
	return false
}

// Write serializes the Group's current logical content to path,
// overwriting any existing file (spec §6's write(path)).
func (g *Group) Write(path string) error {
	data, err := g.WriteToMem()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.ErrIO.New(err.Error())
	}
	return nil
}

// WriteToMem serializes the Group's current logical content to an
// in-memory buffer (spec §6's write_to_mem()), suitable for OpenMem or
// shipping over a wire.
func (g *Group) WriteToMem() ([]byte, error) {
	g.mu.Lock()
	cat := catalog{
		Order:   append([]string(nil), g.order...),
		Tables:  make(map[string]*table.Snapshot, len(g.tables)),
		Version: g.version,
	}
	tables := make(map[string]*table.Table, len(g.tables))
	for name, t := range g.tables {
		tables[name] = t
	}
	g.mu.Unlock()

	for name, t := range tables {
		snap, err := t.Snapshot()
		if err != nil {
			return nil, err
		}
		cat.Tables[name] = snap
	}

	return encodeCatalog(&cat)
}

func encodeCatalog(cat *catalog) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(cat); err != nil {
		return nil, errs.ErrIO.New(err.Error())
	}

	var out bytes.Buffer
	out.WriteString(catalogMagic)
	out.WriteByte(catalogVersion)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func decodeCatalog(data []byte) (*catalog, error) {
	if len(data) < len(catalogMagic)+1 || string(data[:len(catalogMagic)]) != catalogMagic {
		return nil, errs.ErrCorruptFile.New("missing group file magic")
	}
	version := int(data[len(catalogMagic)])
	if version > maxCatalogVersion {
		return nil, errs.ErrFormatVersion.New(version, maxCatalogVersion)
	}

	var cat catalog
	body := data[len(catalogMagic)+1:]
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&cat); err != nil {
		return nil, errs.ErrCorruptFile.New(err.Error())
	}
	return &cat, nil
}

// IsValid reports whether the Group's currently loaded content is a
// complete, trustworthy image of what was persisted. It goes false
// after an Open/OpenMem that had to drop a Subtable cell or any Mixed
// cell it could not restore (spec §6's is_valid()).
func (g *Group) IsValid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.valid
}

// Version returns the group's current committed version.
func (g *Group) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

// IsEmpty reports whether the group has no tables.
func (g *Group) IsEmpty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order) == 0
}

// TableCount returns the number of tables in the group.
func (g *Group) TableCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order)
}

// HasTable reports whether name exists.
func (g *Group) HasTable(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tables[name]
	return ok
}

// GetTable returns the table at position i in creation order.
func (g *Group) GetTable(i int) (*table.Table, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.order) {
		return nil, false
	}
	return g.tables[g.order[i]], true
}

// TableByName looks up a table, satisfying table.Resolver so every
// Table in the group can resolve link targets by name without
// importing group itself.
func (g *Group) TableByName(name string) (*table.Table, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	return t, ok
}

// AddTable creates and registers a new table bound to spec.
func (g *Group) AddTable(name string, spec *schema.Spec) (*table.Table, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.tables[name]; exists {
		return nil, errs.ErrPrecondition.New("table already exists: " + name)
	}
	t, err := table.New(name, spec, g.arena, g.leafSize, g)
	if err != nil {
		return nil, err
	}
	g.tables[name] = t
	g.order = append(g.order, name)
	return t, nil
}

// RemoveTable drops name from the group. Rejected with
// errs.ErrCrossTableLinkTarget if any other table's spec still targets
// it (spec §4.5). If the removed table was not last in creation order,
// the last table takes its slot; this engine keys backlinks by table
// name rather than array position, so no back-pointer rewrite is
// needed beyond the order-slice swap itself (see DESIGN.md).
func (g *Group) RemoveTable(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tables[name]; !ok {
		return errs.ErrPrecondition.New("no such table: " + name)
	}
	for otherName, t := range g.tables {
		if otherName == name {
			continue
		}
		for _, c := range t.Spec().Columns {
			if (c.Type == schema.Link || c.Type == schema.LinkList) && c.TargetTable == name {
				return errs.ErrCrossTableLinkTarget.New(name, otherName)
			}
		}
	}

	idx := -1
	for i, n := range g.order {
		if n == name {
			idx = i
			break
		}
	}
	last := len(g.order) - 1
	if idx != last {
		g.order[idx] = g.order[last]
	}
	g.order = g.order[:last]
	delete(g.tables, name)
	return nil
}

// Arena returns the group's shared array.Arena, for a Writer to
// thread through to write-transaction-scoped helpers.
func (g *Group) Arena() *array.Arena { return g.arena }

// SetMetrics attaches a Metrics set the group's writers and readers
// report against. Safe to call with nil to detach.
func (g *Group) SetMetrics(m *metrics.Metrics) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Metrics = m
}

// BumpVersion advances the version counter by one and returns it. Only
// a committing txn.Writer calls this, while holding the write lock.
func (g *Group) BumpVersion() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.version++
	return g.version
}

// Lock acquires the group's process-wide write lock (spec §4.8: "a
// write transaction takes a process-wide file lock"). Paired with
// Unlock by txn.Writer across BeginWrite/Commit/Rollback.
func (g *Group) Lock() { g.writeMu.Lock() }

// Unlock releases the write lock.
func (g *Group) Unlock() { g.writeMu.Unlock() }
