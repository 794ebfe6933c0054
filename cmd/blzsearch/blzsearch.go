// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/pipeline"
)

var usageMessage = `usage: blzsearch [-index path] [-limit n] [-verbose] query

blzsearch searches the trigram index blzindex builds for paths matching
query, a blaze query expression (bare words, "quoted phrases", glob*
patterns, and field predicates like ext:rs, size:>1mb, modified:today).

blzsearch relies on the existence of an up-to-date index created ahead
of time. To build or rebuild it, run:

	blzindex path

The path to the index is named by the -index flag or $BLAZEINDEX
variable. If both are empty, the current working directory and parents
are recursively searched for a .blazeindex file. If none is found, an
index is assumed to exist at ~/.blazeindex.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	os.Exit(2)
}

var (
	indexFlag   = flag.String("index", "", "path to the index")
	limitFlag   = flag.Int("limit", 100, "maximum number of results (-1 for unlimited)")
	verboseFlag = flag.Bool("verbose", false, "print extra information")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to this file")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
	}
	queryStr := args[0]
	for _, extra := range args[1:] {
		queryStr += " " + extra
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	indexPath := *indexFlag
	if indexPath == "" {
		indexPath = index.File()
	}
	ix, err := index.Open(indexPath)
	if err != nil {
		log.Fatal(err)
	}

	p := pipeline.New(ix)
	if *verboseFlag {
		p = pipeline.NewTimed(ix)
	}

	ranked := p.Parse(queryStr).Execute().Rank(*limitFlag)
	if *verboseFlag {
		log.Printf("query: %q\n", queryStr)
		log.Printf("matched %d files\n", ranked.Count())
		m := ranked.Metrics()
		log.Printf("parse=%s exec=%s rank=%s total=%s\n", m.ParseTime, m.ExecTime, m.RankTime, m.Total())
	}

	for _, entry := range ranked.IterWithPaths() {
		fmt.Println(entry.Path)
	}

	if ranked.Count() == 0 {
		os.Exit(1)
	}
}
