// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package prefix

// Decoder is a lookup table for decoding prefix codes in amortized
// constant time. It is built from a canonical PrefixCodes table whose Val
// fields are already bit-reversed for LSB-first reading (see
// GeneratePrefixes).
//
// The table is two-level: a first-level "chunk" array indexed by the
// low chunkBits bits of the bit buffer resolves any code no longer than
// chunkBits directly; codes longer than that store a link index in the
// chunk entry instead, which selects a second-level table indexed by the
// remaining bits.
type Decoder struct {
	chunks    []uint32
	links     [][]uint32
	chunkMask uint32
	linkMask  uint32
	chunkBits uint8
	minBits   uint8
	numSyms   uint32
}

// Init builds pd from codes, which must already carry canonical Val/Len
// fields (see GeneratePrefixes). codes need not be sorted.
func (pd *Decoder) Init(codes PrefixCodes) {
	if len(codes) == 0 {
		pd.chunks = pd.chunks[:0]
		pd.links = pd.links[:0]
		pd.numSyms = 0
		return
	}
	if len(codes) == 1 {
		pd.chunks = extendUint32s(pd.chunks, 2)
		pd.chunks[0] = codes[0].Sym<<countBits | 1
		pd.chunks[1] = pd.chunks[0]
		pd.links = pd.links[:0]
		pd.chunkMask, pd.linkMask = 1, 0
		pd.chunkBits, pd.minBits = 1, 1
		pd.numSyms = 1
		return
	}

	minBits, maxBits := uint32(valueBits), uint32(0)
	for _, c := range codes {
		if c.Len < minBits {
			minBits = c.Len
		}
		if c.Len > maxBits {
			maxBits = c.Len
		}
	}
	pd.numSyms = uint32(len(codes))
	pd.minBits = uint8(minBits)

	pd.chunkBits = uint8(maxBits)
	if pd.chunkBits > maxChunkBits {
		pd.chunkBits = maxChunkBits
	}
	numChunks := 1 << pd.chunkBits
	pd.chunkMask = uint32(numChunks - 1)
	pd.chunks = extendUint32s(pd.chunks, numChunks)
	for i := range pd.chunks {
		pd.chunks[i] = 0
	}
	pd.links = pd.links[:0]
	pd.linkMask = 0

	if uint32(pd.chunkBits) < maxBits {
		numLinks := 1 << (maxBits - uint32(pd.chunkBits))
		pd.linkMask = uint32(numLinks - 1)
		for _, c := range codes {
			if c.Len <= uint32(pd.chunkBits) {
				continue
			}
			key := c.Val & pd.chunkMask
			if pd.chunks[key] != 0 {
				continue
			}
			linkIdx := len(pd.links)
			pd.links = extendSliceUint32s(pd.links, linkIdx+1)
			pd.links[linkIdx] = extendUint32s(pd.links[linkIdx], numLinks)
			for i := range pd.links[linkIdx] {
				pd.links[linkIdx][i] = 0
			}
			pd.chunks[key] = uint32(linkIdx)<<countBits | (uint32(pd.chunkBits) + 1)
		}
	}

	for _, c := range codes {
		chunk := c.Sym<<countBits | c.Len
		if c.Len <= uint32(pd.chunkBits) {
			skip := 1 << c.Len
			for i := int(c.Val); i < len(pd.chunks); i += skip {
				pd.chunks[i] = chunk
			}
			continue
		}
		linkIdx := pd.chunks[c.Val&pd.chunkMask] >> countBits
		links := pd.links[linkIdx]
		skip := 1 << (c.Len - uint32(pd.chunkBits))
		for i := int(c.Val >> pd.chunkBits); i < len(links); i += skip {
			links[i] = chunk
		}
	}
}
