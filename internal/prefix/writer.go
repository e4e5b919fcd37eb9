// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package prefix

import (
	"io"

	"github.com/gocompress/deflate/internal"
)

// Writer writes bits and prefix-coded symbols to an underlying byte
// stream, mirroring Reader's bit order conventions.
type Writer struct {
	wr        io.Writer
	bigEndian bool
	bufBits   uint64
	numBits   uint
	offset    int64

	buf    [512]byte
	cntBuf int
}

// Init readies bw to write to wr.
func (bw *Writer) Init(wr io.Writer, bigEndian bool) {
	*bw = Writer{wr: wr, bigEndian: bigEndian}
}

func (bw *Writer) flushBits() {
	for bw.numBits >= 8 {
		c := byte(bw.bufBits)
		if bw.bigEndian {
			c = internal.ReverseLUT[c]
		}
		bw.bufBits >>= 8
		bw.numBits -= 8
		bw.buf[bw.cntBuf] = c
		bw.cntBuf++
		if bw.cntBuf == len(bw.buf) {
			bw.flushBuf()
		}
	}
}

func (bw *Writer) flushBuf() {
	if bw.cntBuf == 0 {
		return
	}
	n, err := bw.wr.Write(bw.buf[:bw.cntBuf])
	bw.offset += int64(n)
	bw.cntBuf = 0
	if err != nil {
		panic(err)
	}
}

// TryWriteBits attempts to queue nb bits without flushing any buffered
// output, reporting false if the internal accumulator has no room.
func (bw *Writer) TryWriteBits(v uint, nb uint) bool {
	if bw.numBits+nb > 64 {
		return false
	}
	bw.bufBits |= uint64(v) << bw.numBits
	bw.numBits += nb
	return true
}

// WriteBits queues the low nb bits of v, flushing completed bytes to the
// underlying writer as necessary.
func (bw *Writer) WriteBits(v uint, nb uint) {
	if !bw.TryWriteBits(v, nb) {
		bw.flushBits()
		bw.bufBits |= uint64(v) << bw.numBits
		bw.numBits += nb
	}
	if bw.numBits >= 32 {
		bw.flushBits()
	}
}

// TryWriteSymbol attempts to encode sym using pe without flushing any
// buffered output.
func (bw *Writer) TryWriteSymbol(sym uint, pe *Encoder) bool {
	chunk := pe.chunks[sym]
	nb := chunk & countMask
	if nb == 0 {
		panic(Error("invalid symbol"))
	}
	return bw.TryWriteBits(uint(chunk>>countBits), uint(nb))
}

// WriteSymbol encodes sym using pe.
func (bw *Writer) WriteSymbol(sym uint, pe *Encoder) {
	chunk := pe.chunks[sym]
	nb := chunk & countMask
	if nb == 0 {
		panic(Error("invalid symbol"))
	}
	bw.WriteBits(uint(chunk>>countBits), uint(nb))
}

// WriteOffset encodes the symbol covering offset (per re) followed by
// that symbol's extra bits (per re's underlying RangeCodes).
func (bw *Writer) WriteOffset(offset uint, pe *Encoder, re *RangeEncoder) {
	sym := re.Encode(offset)
	bw.WriteSymbol(sym, pe)
	rc := re.codes[sym]
	bw.WriteBits(offset-uint(rc.Base), uint(rc.Len))
}

// WritePads writes enough bits of value v to align the stream to the
// next byte boundary.
func (bw *Writer) WritePads(v uint) {
	nb := (8 - bw.numBits%8) % 8
	if nb > 0 {
		mask := uint(1)<<nb - 1
		bw.WriteBits(v&mask, nb)
	}
}

// Write implements io.Writer, requiring the current bit position to be
// byte-aligned.
func (bw *Writer) Write(buf []byte) (int, error) {
	if bw.numBits%8 != 0 {
		return 0, Error("non-aligned bit buffer")
	}
	bw.flushBits()
	bw.flushBuf()
	n, err := bw.wr.Write(buf)
	bw.offset += int64(n)
	return n, err
}

// Flush flushes any whole bytes queued in the bit accumulator and any
// buffered output to the underlying writer, returning the total number
// of bytes written so far.
func (bw *Writer) Flush() (int64, error) {
	bw.flushBits()
	bw.flushBuf()
	return bw.offset, nil
}
