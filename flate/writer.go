// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"io"

	"github.com/gocompress/deflate/internal/prefix"
)

// Compression levels, matching the convention of compress/flate. Since
// this encoder always emits a single dynamic block per Close (RFC 1951
// section 3.2.7's header cost is only worth amortizing once per stream),
// the level only controls how hard the match finder searches each hash
// chain; it never changes the bitstream's validity.
const (
	BestSpeed          = 1
	BestCompression    = 9
	DefaultCompression = -1
)

type Writer struct {
	InputOffset  int64 // Total number of bytes issued to Write
	OutputOffset int64 // Total number of bytes written to underlying io.Writer

	wr     prefix.Writer
	err    error
	level  int
	closed bool

	win     []byte // dict ++ every byte passed to Write
	dictLen int     // length of the preset dictionary prefix of win
}

// NewWriter creates a Writer that emits a DEFLATE stream to w at
// DefaultCompression. If dict is non-nil, it seeds the sliding window
// exactly as NewReader(r, dict) expects on the decompressing side.
func NewWriter(w io.Writer, dict []byte) *Writer {
	zw, _ := NewWriterLevel(w, DefaultCompression, dict)
	return zw
}

// NewWriterLevel is like NewWriter but specifies the compression level,
// which must be between BestSpeed and BestCompression, or
// DefaultCompression.
func NewWriterLevel(w io.Writer, level int, dict []byte) (*Writer, error) {
	if level == DefaultCompression {
		level = 6
	}
	if level < BestSpeed || level > BestCompression {
		return nil, Error("invalid compression level")
	}
	zw := new(Writer)
	zw.level = level
	zw.Reset(w, dict)
	return zw, nil
}

// Reset discards the Writer's state and starts writing to w, optionally
// seeding the sliding window with dict.
func (zw *Writer) Reset(w io.Writer, dict []byte) {
	*zw = Writer{level: zw.level, win: zw.win[:0]}
	zw.wr.Init(w, false)

	if len(dict) > maxMatchDist {
		dict = dict[len(dict)-maxMatchDist:]
	}
	if cap(zw.win) < len(dict) {
		zw.win = make([]byte, len(dict), len(dict)*2)
	} else {
		zw.win = zw.win[:len(dict)]
	}
	copy(zw.win, dict)
	zw.dictLen = len(dict)
}

// Write buffers buf for compression. Since this Writer always emits a
// single block covering the whole stream, the actual DEFLATE tokens are
// not produced until Close.
func (zw *Writer) Write(buf []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	zw.win = append(zw.win, buf...)
	zw.InputOffset += int64(len(buf))
	return len(buf), nil
}

// Close flushes the buffered input as a single final DEFLATE block and
// closes out the bitstream. Empty input produces zero bytes of output.
func (zw *Writer) Close() error {
	if zw.closed {
		return zw.err
	}
	zw.closed = true
	if zw.err != nil {
		return zw.err
	}
	func() {
		defer errRecover(&zw.err)
		if len(zw.win) > zw.dictLen {
			zw.writeBlock()
		}
	}()
	if zw.err != nil {
		return zw.err
	}
	zw.OutputOffset, zw.err = zw.wr.Flush()
	return zw.err
}

// chainLimit maps the configured compression level to how many hash
// chain entries the match finder walks per position.
func (zw *Writer) chainLimit() int {
	return 1 << uint(zw.level+2)
}

// writeBlock emits a single BFINAL=1, BTYPE=2 (dynamic Huffman) block
// covering the buffered input, per RFC 1951 section 3.2.7.
func (zw *Writer) writeBlock() {
	toks := tokenize(zw.win, zw.dictLen, zw.chainLimit())

	var litFreq [maxNumLitSyms]uint32
	var distFreq [maxNumDistSyms]uint32
	litFreq[endBlockSym] = 1
	for _, t := range toks {
		if t.length == 0 {
			litFreq[t.lit]++
			continue
		}
		litFreq[257+lenRangeEnc.Encode(uint(t.length))]++
		distFreq[distRangeEnc.Encode(uint(t.dist))]++
	}

	var codeLits prefix.PrefixCodes
	for sym, cnt := range litFreq {
		if cnt > 0 {
			codeLits = append(codeLits, prefix.PrefixCode{Sym: uint32(sym), Cnt: cnt})
		}
	}
	var codeDists prefix.PrefixCodes
	for sym, cnt := range distFreq {
		if cnt > 0 {
			codeDists = append(codeDists, prefix.PrefixCode{Sym: uint32(sym), Cnt: cnt})
		}
	}
	if len(codeDists) == 0 {
		// RFC 1951 section 3.2.7: HDIST must be at least 1, even though no
		// distance code is ever used in this block.
		codeDists = prefix.PrefixCodes{{Sym: 0, Cnt: 1}}
	}

	var numLitSyms uint32 = maxNumLitSyms
	for numLitSyms > 257 && litFreq[numLitSyms-1] == 0 {
		numLitSyms--
	}
	var numDistSyms uint32 = maxNumDistSyms
	for numDistSyms > 1 && distFreq[numDistSyms-1] == 0 {
		numDistSyms--
	}

	codeLits.SortByCount()
	if err := prefix.GenerateLengths(codeLits, maxPrefixBits); err != nil {
		panic(err)
	}
	codeLits.SortBySymbol()
	if err := prefix.GeneratePrefixes(codeLits); err != nil {
		panic(err)
	}

	codeDists.SortByCount()
	if err := prefix.GenerateLengths(codeDists, maxPrefixBits); err != nil {
		panic(err)
	}
	codeDists.SortBySymbol()
	if err := prefix.GeneratePrefixes(codeDists); err != nil {
		panic(err)
	}

	zw.wr.WriteBits(1, 1) // BFINAL
	zw.wr.WriteBits(2, 2) // BTYPE = dynamic Huffman
	litEnc, distEnc := zw.writePrefixCodes(codeLits, codeDists, numLitSyms, numDistSyms)

	for _, t := range toks {
		if t.length == 0 {
			zw.wr.WriteSymbol(uint(t.lit), &litEnc)
			continue
		}
		idx := lenRangeEnc.Encode(uint(t.length))
		rec := lenCodes[idx]
		zw.wr.WriteSymbol(uint(257+idx), &litEnc)
		zw.wr.WriteBits(uint(t.length)-uint(rec.Base), uint(rec.Len))
		zw.wr.WriteOffset(uint(t.dist), &distEnc, &distRangeEnc)
	}
	zw.wr.WriteSymbol(endBlockSym, &litEnc)
	zw.wr.WritePads(0) // Flush only emits whole bytes
}
