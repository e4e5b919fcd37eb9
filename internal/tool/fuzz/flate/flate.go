// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build gofuzz

package flate

import (
	"bytes"
	"io/ioutil"

	"github.com/gocompress/deflate/flate"
)

func Fuzz(data []byte) int {
	data, ok := testDecoder(data)
	for i := 1; i <= 9; i++ {
		testEncoder(data, i)
	}
	if ok {
		return 1 // Favor valid inputs
	}
	return 0
}

// testDecoder runs the raw input through the decoder. An error here is not
// itself a failure; it just means data is not a valid stream to round-trip.
func testDecoder(data []byte) ([]byte, bool) {
	rd := flate.NewReader(bytes.NewReader(data), nil)
	defer rd.Close()
	b, err := ioutil.ReadAll(rd)
	if err != nil {
		return nil, false
	}
	if err := rd.Close(); err != nil {
		return nil, false
	}
	return b, true
}

// testEncoder compresses data at the given level and checks that the
// decoder reproduces it exactly.
func testEncoder(data []byte, level int) {
	bb := new(bytes.Buffer)
	wr, err := flate.NewWriterLevel(bb, level, nil)
	if err != nil {
		panic(err)
	}
	defer wr.Close()
	if _, err := wr.Write(data); err != nil {
		panic(err)
	}
	if err := wr.Close(); err != nil {
		panic(err)
	}

	b, ok := testDecoder(bb.Bytes())
	if !ok {
		panic("decoder error on encoder output")
	}
	if !bytes.Equal(b, data) {
		panic("mismatching bytes")
	}
}
