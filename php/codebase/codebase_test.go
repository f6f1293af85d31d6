package codebase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/phpsense/config"
	"github.com/dhamidi/phpsense/php/completion"
)

func file(src string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(src)}
}

func projectFS() fstest.MapFS {
	fsys := fstest.MapFS{
		"src/Models/User.php":   file(`<?php namespace App\Models; class User extends Base { public function getName() {} }`),
		"src/Models/Base.php":   file(`<?php namespace App\Models; class Base { public function save() {} }`),
		"src/helpers.PHP":       file(`<?php function helper($x) {}`),
		"vendor/lib/Vendor.php": file(`<?php class Vendor {}`),
		".hidden/Hidden.php":    file(`<?php class Hidden {}`),
		"node_modules/x.php":    file(`<?php class Node {}`),
		"storage/Cache.php":     file(`<?php class Cache {}`),
		"tests/UserTest.php":    file(`<?php class UserTest {}`),
		"README.md":             file(`# readme`),
	}
	for i := 0; i < 12; i++ {
		fsys[fmt.Sprintf("gen/Class%d.php", i)] = file(fmt.Sprintf(`<?php namespace Gen; class Class%d {}`, i))
	}
	return fsys
}

func newTestCodebase(t *testing.T, fsys fs.FS) *Codebase {
	t.Helper()
	cfg := config.Default()
	cfg.Index.BatchSize = 4
	cfg.Index.Exclude = []string{"tests/**"}
	cfg.Index.SkipDirs = []string{"storage"}
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	opts.FS = fsys
	return New("/proj", opts)
}

func TestIndex(t *testing.T) {
	c := newTestCodebase(t, projectFS())

	var calls [][2]int
	stats, err := c.Index(context.Background(), func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{4, 15}, {8, 15}, {12, 15}, {15, 15}}, calls)
	assert.Equal(t, 15, stats.Files)
	assert.Equal(t, 14, stats.Classes)
	assert.Equal(t, 1, stats.Functions)
	assert.Equal(t, 2, stats.Namespaces)
	assert.Zero(t, stats.Skipped)

	table := c.Table()
	for _, name := range []string{"Vendor", "Hidden", "Node", "Cache", "UserTest"} {
		assert.Nil(t, table.Class(name), name)
	}

	user := table.Class("App\\Models\\User")
	require.NotNil(t, user)
	assert.Equal(t, "/proj/src/Models/User.php", user.File)
	require.Contains(t, user.Methods, "save")
	assert.True(t, user.Methods["save"].Inherited)
	assert.NotNil(t, table.File("/proj/src/Models/User.php"))
}

func TestIndexCompletes(t *testing.T) {
	c := newTestCodebase(t, projectFS())
	assert.Empty(t, c.Complete(completion.Query{Line: "new Us"}), "no index yet")

	_, err := c.Index(context.Background(), nil)
	require.NoError(t, err)

	items := c.Complete(completion.Query{Line: "$u = new Us"})
	require.NotEmpty(t, items)
	assert.Equal(t, "User", items[0].Label())
	assert.Equal(t, "User()", items[0].InsertText())
}

func TestIndexIsIdempotent(t *testing.T) {
	c := newTestCodebase(t, projectFS())

	_, err := c.Index(context.Background(), nil)
	require.NoError(t, err)
	first := c.Table()

	_, err = c.Index(context.Background(), nil)
	require.NoError(t, err)
	second := c.Table()

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Classes(), second.Classes())
	assert.Equal(t, first.Functions(), second.Functions())
	assert.Equal(t, first.Namespaces(), second.Namespaces())
}

func TestIndexRootUnreadable(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing"), Options{})

	_, err := c.Index(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRootUnreadable)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

type brokenFS struct {
	fstest.MapFS
	broken map[string]bool
}

func (b brokenFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if b.broken[name] {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrPermission}
	}
	return b.MapFS.ReadDir(name)
}

func (b brokenFS) ReadFile(name string) ([]byte, error) {
	if b.broken[name] {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrPermission}
	}
	return b.MapFS.ReadFile(name)
}

func TestIndexSkipsUnreadableEntries(t *testing.T) {
	fsys := brokenFS{
		MapFS: fstest.MapFS{
			"ok/A.php":      file(`<?php class A {}`),
			"locked/B.php":  file(`<?php class B {}`),
			"ok/Broken.php": file(`<?php class Broken {}`),
		},
		broken: map[string]bool{"locked": true, "ok/Broken.php": true},
	}
	c := New("/proj", Options{FS: fsys})

	stats, err := c.Index(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Files)
	assert.NotNil(t, c.Table().Class("A"))
	assert.Nil(t, c.Table().Class("B"))
}

func TestIndexCancelled(t *testing.T) {
	c := newTestCodebase(t, projectFS())
	_, err := c.Index(context.Background(), nil)
	require.NoError(t, err)
	before := c.Table()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Index(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Same(t, before, c.Table(), "an abandoned run keeps the previous index")
}

// cancelFS cancels the indexing context from inside a read.
type cancelFS struct {
	fstest.MapFS
	cancel context.CancelFunc
}

func (c *cancelFS) ReadFile(name string) ([]byte, error) {
	if c.cancel != nil {
		c.cancel()
	}
	return c.MapFS.ReadFile(name)
}

func TestIndexCancelledMidBatch(t *testing.T) {
	fsys := &cancelFS{MapFS: fstest.MapFS{
		"A.php": file(`<?php class A {}`),
		"B.php": file(`<?php class B {}`),
		"C.php": file(`<?php class C {}`),
	}}
	c := New("/proj", Options{FS: fsys, BatchSize: 10})
	_, err := c.Index(context.Background(), nil)
	require.NoError(t, err)
	before := c.Table()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fsys.cancel = cancel
	_, err = c.Index(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Same(t, before, c.Table(), "a run cancelled inside its only batch keeps the previous index")
}

func TestFilters(t *testing.T) {
	c := newTestCodebase(t, fstest.MapFS{})

	tests := []struct {
		rel     string
		skipDir bool
		selects bool
	}{
		{"src", false, false},
		{"vendor", true, false},
		{"a/node_modules", true, false},
		{".cache", true, false},
		{"storage", true, false},
		{"tests/unit", true, false},
		{"src/A.php", false, true},
		{"src/A.PHP", false, true},
		{"src/A.phpx", false, false},
		{"tests/A.php", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.skipDir, c.SkipDir(tt.rel))
			assert.Equal(t, tt.selects, c.SelectFile(tt.rel))
		})
	}
}
