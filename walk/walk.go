// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package walk traverses a directory tree and emits index.FileRecord values
// for the builder, applying .gitignore rules and user-supplied glob
// excludes along the way.
package walk

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/blaze-search/blaze/index"
)

// Modified from Go's filepath.WalkDir in path/filepath/path.go.
// filepath.WalkDir does not visit directories after its entries have
// been traversed, so a custom implementation is needed.

// SkipDir is returned by a RecordFunc to indicate the directory just
// visited should not be descended into.
var SkipDir = fs.SkipDir

// RecordFunc is called once per visited filesystem entry. Returning
// SkipDir for a directory entry skips its contents; any other non-nil
// error aborts the walk.
type RecordFunc func(rec index.FileRecord) error

// Walker traverses root, calling fn for every entry found (including root
// itself).
type Walker interface {
	Walk(root string, fn RecordFunc) error
}

// Excluder decides whether a user-level exclude glob matches a path, on
// top of whatever gitignore rules already apply (C4's FlagExcludedUser).
type Excluder interface {
	Match(relPath string, isDir bool) bool
}

// noExcluder matches nothing; used when no exclude patterns are configured.
type noExcluder struct{}

func (noExcluder) Match(string, bool) bool { return false }

type walker struct {
	excl Excluder
}

// NewWalker returns a plain walker that applies no gitignore rules, only
// the supplied user excludes (nil means none).
func NewWalker(excl Excluder) Walker {
	if excl == nil {
		excl = noExcluder{}
	}
	return &walker{excl: excl}
}

func (w *walker) Walk(root string, fn RecordFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}
		excluded := rel != "." && w.excl.Match(filepath.ToSlash(rel), d.IsDir())
		rec, recErr := buildRecord(path, d, excluded)
		if recErr != nil {
			return nil
		}
		cbErr := fn(rec)
		if cbErr == SkipDir && d.IsDir() {
			return SkipDir
		}
		return cbErr
	})
}

// gitignoreWalker additionally skips directories and files matched by
// .gitignore rules (global, system, and per-directory), in the spirit of
// git's own ignore resolution.
type gitignoreWalker struct {
	ps   []gitignore.Pattern
	m    gitignore.Matcher
	excl Excluder
}

// NewGitignoreWalker returns a Walker that honors .gitignore files
// encountered along the tree, plus the global/system gitignore, plus excl
// (nil means no user excludes).
func NewGitignoreWalker(excl Excluder) (Walker, error) {
	w := &gitignoreWalker{excl: excl}
	if w.excl == nil {
		w.excl = noExcluder{}
	}
	if err := w.loadGlobalGitignore(); err != nil {
		return nil, err
	}
	return w, nil
}

// walk recursively descends path, calling fn.
func (w *gitignoreWalker) walk(path string, pathSplit []string, d fs.DirEntry, root string, fn RecordFunc) error {
	rel, rerr := filepath.Rel(root, path)
	if rerr != nil {
		rel = path
	}
	excluded := rel != "." && w.excl.Match(filepath.ToSlash(rel), d.IsDir())
	rec, recErr := buildRecord(path, d, excluded)
	if recErr == nil {
		if err := fn(rec); err != nil {
			if err == SkipDir && d.IsDir() {
				return nil
			}
			return err
		}
	}
	if !d.IsDir() {
		return nil
	}

	dirs, err := os.ReadDir(path)
	if err != nil {
		return nil
	}

	l := len(w.ps)
	if err := w.readGitignore(path, pathSplit); err != nil {
		log.Printf("blaze: reading .gitignore in %s: %v\n", path, err)
	}

	for _, d1 := range dirs {
		name := d1.Name()
		path1 := filepath.Join(path, name)
		pathSplit1 := append(pathSplit, name)
		if w.m.Match(pathSplit1, d1.IsDir()) {
			// TODO log only on -logskip
			continue
		}
		if err := w.walk(path1, pathSplit1, d1, root, fn); err != nil {
			if err == SkipDir {
				break
			}
			return err
		}
	}

	// Pop the gitignore patterns when backing out of this dir. go-git
	// already checks whether a file is within scope of a gitignore, but
	// this saves extra checks when many gitignores have been read.
	w.ps = w.ps[:l]
	return nil
}

// Walk walks the file tree rooted at root, calling fn for each file or
// directory in the tree, including root.
//
// The files are walked in lexical order, which makes indexing
// deterministic but requires Walk to read an entire directory into memory
// before proceeding to walk that directory.
//
// Walk does not follow symbolic links found in directories, but if root
// itself is a symbolic link, its target will be walked.
func (w *gitignoreWalker) Walk(root string, fn RecordFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	err = w.walk(root, split(root), &statDirEntry{info}, root, fn)
	if err == SkipDir {
		return nil
	}
	return err
}

type statDirEntry struct {
	info fs.FileInfo
}

func (d *statDirEntry) Name() string               { return d.info.Name() }
func (d *statDirEntry) IsDir() bool                { return d.info.IsDir() }
func (d *statDirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d *statDirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

// split splits a path into names separated by os.PathSeparator.
func split(path string) []string {
	sep := string(os.PathSeparator)
	if path == sep {
		return []string{}
	}
	return strings.Split(strings.TrimPrefix(path, sep), sep)
}

// buildRecord stats path (via d.Info, already cached by the walk) and
// translates it into the builder's FileRecord contract. excludedByUser
// marks FlagExcludedUser; gitignore-driven exclusion is marked separately
// via the caller never invoking fn at all (entries pruned by .gitignore or
// directory iteration are never visited, matching IgnoredByPattern's
// "this is why the builder never saw it" semantics -- records that DO
// reach buildRecord are only user-excluded, hidden, or plain).
func buildRecord(path string, d fs.DirEntry, excludedByUser bool) (index.FileRecord, error) {
	info, err := d.Info()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return index.FileRecord{}, err
		}
		return index.FileRecord{}, err
	}

	name := d.Name()
	ext := ""
	if !d.IsDir() {
		if dot := strings.LastIndexByte(name, '.'); dot > 0 {
			ext = strings.ToLower(name[dot+1:])
		}
	}

	mode := info.Mode()
	rec := index.FileRecord{
		Path:           path,
		Name:           name,
		Size:           uint64(info.Size()),
		Modified:       info.ModTime().Unix(),
		Created:        createdEpoch(info),
		Ext:            ext,
		IsDir:          d.IsDir(),
		IsSymlink:      mode&fs.ModeSymlink != 0,
		IsSpecial:      mode&(fs.ModeDevice|fs.ModeNamedPipe|fs.ModeSocket|fs.ModeCharDevice) != 0,
		HiddenOS:       strings.HasPrefix(name, "."),
		ExcludedByUser: excludedByUser,
	}
	return rec, nil
}
