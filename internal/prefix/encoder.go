// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package prefix

// Encoder is a lookup table for looking up the bit pattern and length of
// a prefix code given its symbol, used by Writer.WriteSymbol.
type Encoder struct {
	chunks    []uint32
	chunkMask uint32
	numSyms   uint32
}

// Init builds pe from codes, which must already carry canonical Val/Len
// fields (see GeneratePrefixes). Symbols are used directly as indices, so
// this is only appropriate for reasonably dense, non-negative alphabets
// such as DEFLATE's literal/length and distance codes.
func (pe *Encoder) Init(codes PrefixCodes) {
	var maxSym uint32
	for _, c := range codes {
		if c.Sym > maxSym {
			maxSym = c.Sym
		}
	}
	pe.chunks = extendUint32s(pe.chunks, int(maxSym)+1)
	for i := range pe.chunks {
		pe.chunks[i] = 0
	}
	pe.chunkMask = maxSym
	pe.numSyms = uint32(len(codes))
	for _, c := range codes {
		pe.chunks[c.Sym] = c.Val<<countBits | c.Len
	}
}
