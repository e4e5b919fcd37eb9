// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command gunzip extracts every member of a GZIP file.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gocompress/deflate/gzip"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: gunzip file.gz")
		os.Exit(1)
	}
	path := os.Args[1]

	arc, err := gzip.Parse(path)
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range arc.Members {
		if err := arc.ExtractFile(m); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: extracted\n", path)
	}
}
