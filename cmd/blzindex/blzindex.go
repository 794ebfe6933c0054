// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/walk"
)

var usageMessage = `usage: blzindex [-index path] [-exclude pattern,...] path

blzindex builds the trigram index blzsearch uses. The index is the file
named by the -index flag or $BLAZEINDEX variable. If both are empty, the
current working directory and parents are searched for a .blazeindex
file; if none is found, the index path defaults to ~/.blazeindex.

blzindex takes exactly one root path; the index stores a single
indexed root, not an accumulated multi-path set.

	blzindex ~/src

The -exclude flag takes a comma-separated list of doublestar glob
patterns (e.g. "**/*.tmp,**/node_modules/**") matched against paths
relative to the root; matches are tagged excluded_by_user rather than
omitted from the walk outright, so they still occupy a directory entry
for path reconstruction.

The -gitignore flag (on by default) honors .gitignore files found while
walking, plus the global/system gitignore.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	os.Exit(2)
}

var (
	indexFlag     = flag.String("index", "", "path to the index")
	excludeFlag   = flag.String("exclude", "", "comma-separated doublestar exclude globs")
	gitignoreFlag = flag.Bool("gitignore", true, "honor .gitignore files")
	verboseFlag   = flag.Bool("verbose", false, "print extra information")
	cpuProfile    = flag.String("cpuprofile", "", "write cpu profile to this file")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		usage()
	}
	root := args[0]

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		log.Fatal(err)
	}

	var excl walk.Excluder
	if *excludeFlag != "" {
		excl = walk.NewGlobExcluder(strings.Split(*excludeFlag, ","))
	}

	var w walk.Walker
	if *gitignoreFlag {
		w, err = walk.NewGitignoreWalker(excl)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		w = walk.NewWalker(excl)
	}

	b := index.NewBuilder(absRoot, uint64(time.Now().Unix()))

	log.Printf("index %s", absRoot)
	var nFiles int
	err = w.Walk(absRoot, func(rec index.FileRecord) error {
		b.AddRecord(rec)
		if !rec.IsDir {
			nFiles++
		}
		if *verboseFlag && nFiles%10000 == 0 && nFiles > 0 {
			log.Printf("%d files indexed", nFiles)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	staged := b.Finish()

	primary := *indexFlag
	if primary == "" {
		primary = index.File()
	}
	if fi, err := os.Stat(primary); err == nil && fi.IsDir() {
		log.Fatalf("index %s: path is a directory", primary)
	}

	if err := index.Write(primary, staged, 0); err != nil {
		log.Fatal(err)
	}
	log.Printf("done: %d files, %d dirs", len(staged.Files), len(staged.Dirs))
}
