// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command unzip extracts every entry of a ZIP archive.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gocompress/deflate/zip"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: unzip file.zip")
		os.Exit(1)
	}
	path := os.Args[1]

	arc, err := zip.Parse(path)
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range arc.Entries {
		if err := arc.ExtractFile(e); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: extracted\n", e.Name)
	}
}
