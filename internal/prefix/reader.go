// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package prefix

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/gocompress/deflate"
	"github.com/gocompress/deflate/internal"
)

// Reader reads bits and prefix-coded symbols from an underlying byte
// stream. When bigEndian is false, bits are packed LSB-first within each
// byte (DEFLATE's convention); when true, MSB-first.
type Reader struct {
	rd    deflate.ByteReader
	bufRd deflate.BufferedReader

	bigEndian bool
	bufBits   uint64
	numBits   uint
	offset    int64

	bufPeek     []byte
	discardBits int
	fedBits     uint
}

// Init readies br to read from rd.
func (br *Reader) Init(rd io.Reader, bigEndian bool) {
	*br = Reader{bigEndian: bigEndian}
	switch v := rd.(type) {
	case deflate.BufferedReader:
		br.bufRd = v
	case *bytes.Buffer:
		br.bufRd = &buffer{v}
	case *bytes.Reader:
		br.bufRd = newBytesReader(v)
	case *strings.Reader:
		br.bufRd = newStringReader(v)
	case deflate.ByteReader:
		br.rd = v
	default:
		br.bufRd = bufio.NewReader(rd)
	}
}

func (br *Reader) byteOf(c byte) byte {
	if br.bigEndian {
		return internal.ReverseLUT[c]
	}
	return c
}

// FeedBits ensures that at least nb bits are buffered, blocking on reads
// from the underlying stream as necessary.
func (br *Reader) FeedBits(nb uint) {
	for br.numBits < nb {
		if br.bufRd != nil {
			if br.fedBits == 0 {
				n := br.bufRd.Buffered()
				if n < 1 {
					n = 1
				}
				if n > 8 {
					n = 8
				}
				peek, _ := br.bufRd.Peek(n)
				if len(peek) == 0 {
					panic(io.ErrUnexpectedEOF)
				}
				br.bufPeek = peek
				br.fedBits = uint(len(peek)) * 8
			}
			c := br.byteOf(br.bufPeek[0])
			br.bufPeek = br.bufPeek[1:]
			br.bufBits |= uint64(c) << br.numBits
			br.numBits += 8
			br.fedBits -= 8
			br.discardBits += 8
			if br.fedBits == 0 {
				n, _ := br.bufRd.Discard(br.discardBits / 8)
				br.offset += int64(n)
				br.discardBits = 0
			}
			continue
		}
		c, err := br.rd.ReadByte()
		if err != nil {
			panic(io.ErrUnexpectedEOF)
		}
		br.bufBits |= uint64(br.byteOf(c)) << br.numBits
		br.numBits += 8
		br.offset++
	}
	if br.bufRd != nil {
		br.FlushOffset() // Discard every fed byte so bufRd is positioned after them
	}
}

// Read implements io.Reader, requiring the current bit position to be
// byte-aligned.
func (br *Reader) Read(buf []byte) (cnt int, err error) {
	if br.numBits%8 != 0 {
		return 0, Error("non-aligned bit buffer")
	}
	for len(buf) > 0 && br.numBits > 0 {
		buf[0] = byte(br.bufBits)
		if br.bigEndian {
			buf[0] = internal.ReverseLUT[buf[0]]
		}
		br.bufBits >>= 8
		br.numBits -= 8
		buf = buf[1:]
		cnt++
	}
	if len(buf) == 0 {
		return cnt, nil
	}
	var n int
	if br.bufRd != nil {
		n, err = br.bufRd.Read(buf)
		br.offset += int64(n)
	} else {
		n, err = br.rd.Read(buf)
		br.offset += int64(n)
	}
	return cnt + n, err
}

// TryReadBits attempts to read nb bits without blocking on underlying I/O,
// reporting false if not enough bits are currently buffered.
func (br *Reader) TryReadBits(nb uint) (uint, bool) {
	if br.numBits < nb {
		return 0, false
	}
	val := uint(br.bufBits) & (1<<nb - 1)
	br.bufBits >>= nb
	br.numBits -= nb
	return val, true
}

// ReadBits reads and returns the next nb bits, blocking as necessary.
func (br *Reader) ReadBits(nb uint) uint {
	if v, ok := br.TryReadBits(nb); ok {
		return v
	}
	br.FeedBits(nb)
	v, _ := br.TryReadBits(nb)
	return v
}

// ReadPads discards the remaining bits up to the next byte boundary,
// returning them.
func (br *Reader) ReadPads() uint {
	nb := br.numBits % 8
	return br.ReadBits(nb)
}

// TryReadSymbol attempts to decode the next symbol using pd without
// blocking on underlying I/O.
func (br *Reader) TryReadSymbol(pd *Decoder) (uint, bool) {
	if len(pd.chunks) == 0 {
		return 0, false
	}
	if br.numBits < uint(pd.minBits) {
		return 0, false
	}
	low := uint32(br.bufBits) & pd.chunkMask
	chunk := pd.chunks[low]
	nb := chunk & countMask
	if nb > uint32(pd.chunkBits) {
		if br.numBits < uint(nb) {
			return 0, false
		}
		idx := chunk >> countBits
		key := (uint32(br.bufBits) >> pd.chunkBits) & pd.linkMask
		chunk = pd.links[idx][key]
		nb = chunk & countMask
	}
	if br.numBits < uint(nb) {
		return 0, false
	}
	br.bufBits >>= nb
	br.numBits -= uint(nb)
	return uint(chunk >> countBits), true
}

// ReadSymbol decodes the next symbol using pd, blocking as necessary.
func (br *Reader) ReadSymbol(pd *Decoder) uint {
	if sym, ok := br.TryReadSymbol(pd); ok {
		return sym
	}
	if len(pd.chunks) == 0 {
		panic(Error("no symbols to decode"))
	}
	br.FeedBits(uint(pd.minBits))
	for {
		if sym, ok := br.TryReadSymbol(pd); ok {
			return sym
		}
		br.FeedBits(br.numBits + 1)
	}
}

// ReadOffset decodes a symbol using pd, then reads that symbol's extra
// bits per rcs, returning rcs[sym].Base plus the extra value.
func (br *Reader) ReadOffset(pd *Decoder, rcs RangeCodes) uint {
	sym := br.ReadSymbol(pd)
	rc := rcs[sym]
	extra := br.ReadBits(uint(rc.Len))
	return uint(rc.Base) + extra
}

// FlushOffset returns the stream offset (in bytes) of the next unread
// bit, accounting for any bits that are buffered but not yet consumed.
func (br *Reader) FlushOffset() int64 {
	if br.bufRd != nil && br.discardBits > 0 {
		n, _ := br.bufRd.Discard(br.discardBits / 8)
		br.offset += int64(n)
		br.discardBits = 0
		br.bufPeek = nil
		br.fedBits = 0
	}
	return br.offset - int64(br.numBits/8)
}

// Flush is equivalent to FlushOffset, with an error return for API
// symmetry with Writer.Flush.
func (br *Reader) Flush() (int64, error) {
	return br.FlushOffset(), nil
}
