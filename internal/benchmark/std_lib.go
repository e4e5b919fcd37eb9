// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build !no_std_lib

package benchmark

import "io"
import "io/ioutil"
import "compress/flate"

import ourflate "github.com/gocompress/deflate/flate"

func init() {
	registerEncoder(FormatFlate, "std",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := flate.NewWriter(w, lvl)
			if err != nil {
				panic(err)
			}
			return zw
		})
	registerDecoder(FormatFlate, "std",
		func(r io.Reader) io.ReadCloser {
			return ioutil.NopCloser(flate.NewReader(r))
		})

	registerEncoder(FormatFlate, "gocompress",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := ourflate.NewWriterLevel(w, lvl, nil)
			if err != nil {
				panic(err)
			}
			return zw
		})
	registerDecoder(FormatFlate, "gocompress",
		func(r io.Reader) io.ReadCloser {
			return ourflate.NewReader(r, nil)
		})
}
