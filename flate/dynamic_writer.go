// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/gocompress/deflate/internal/prefix"

// metaTok is one symbol of the code-length meta-alphabet (RFC 1951
// section 3.2.7): either a literal length value 0..15, or one of the
// repeater symbols 16..18 together with its extra-bit value and width.
type metaTok struct {
	sym uint32
	val uint32
	nb  uint32
}

// buildLenSeq compresses the concatenated literal/length and distance
// code lengths into the meta-alphabet token sequence RFC 1951 section
// 3.2.7 describes: runs of 4..7 identical nonzero lengths collapse to
// the first length plus one repeat-previous (16) symbol, and runs of
// zero collapse to repeat-zero symbols (17 for 3..10, 18 for 11..138).
func buildLenSeq(lens []uint32) []metaTok {
	var toks []metaTok
	for i := 0; i < len(lens); {
		v := lens[i]
		run := 1
		for i+run < len(lens) && lens[i+run] == v {
			run++
		}

		if v == 0 {
			for n := run; n > 0; {
				switch {
				case n < 3:
					for ; n > 0; n-- {
						toks = append(toks, metaTok{sym: 0})
					}
				case n <= 10:
					toks = append(toks, metaTok{sym: 17, val: uint32(n - 3), nb: 3})
					n = 0
				default:
					c := n
					if c > 138 {
						c = 138
					}
					toks = append(toks, metaTok{sym: 18, val: uint32(c - 11), nb: 7})
					n -= c
				}
			}
		} else {
			toks = append(toks, metaTok{sym: v})
			for n := run - 1; n > 0; {
				if n < 3 {
					for ; n > 0; n-- {
						toks = append(toks, metaTok{sym: v})
					}
				} else {
					c := n
					if c > 6 {
						c = 6
					}
					toks = append(toks, metaTok{sym: 16, val: uint32(c - 3), nb: 2})
					n -= c
				}
			}
		}
		i += run
	}
	return toks
}

// writePrefixCodes writes a dynamic block's prefix table header (HLIT,
// HDIST, HCLEN, the meta-coded length sequence) per RFC 1951 section
// 3.2.7, and builds the literal/length and distance encoders the caller
// uses for the rest of the block.
func (zw *Writer) writePrefixCodes(codeLits, codeDists prefix.PrefixCodes, numLitSyms, numDistSyms uint32) (litEnc, distEnc prefix.Encoder) {
	lens := make([]uint32, numLitSyms+numDistSyms)
	for _, c := range codeLits {
		lens[c.Sym] = c.Len
	}
	for _, c := range codeDists {
		lens[numLitSyms+c.Sym] = c.Len
	}

	toks := buildLenSeq(lens)

	var clenFreq [maxNumCLenSyms]uint32
	for _, t := range toks {
		clenFreq[t.sym]++
	}
	var codeCLens prefix.PrefixCodes
	for sym, cnt := range clenFreq {
		if cnt > 0 {
			codeCLens = append(codeCLens, prefix.PrefixCode{Sym: uint32(sym), Cnt: cnt})
		}
	}
	codeCLens.SortByCount()
	if err := prefix.GenerateLengths(codeCLens, 7); err != nil {
		panic(err)
	}
	codeCLens.SortBySymbol()
	if err := prefix.GeneratePrefixes(codeCLens); err != nil {
		panic(err)
	}
	var clenEnc prefix.Encoder
	clenEnc.Init(codeCLens)

	var clenOf [maxNumCLenSyms]uint32
	for _, c := range codeCLens {
		clenOf[c.Sym] = c.Len
	}
	numCLenSyms := uint(4)
	for i, sym := range clenLens {
		if clenOf[sym] != 0 && uint(i)+1 > numCLenSyms {
			numCLenSyms = uint(i) + 1
		}
	}

	zw.wr.WriteBits(uint(numLitSyms-257), 5)
	zw.wr.WriteBits(uint(numDistSyms-1), 5)
	zw.wr.WriteBits(numCLenSyms-4, 4)
	for _, sym := range clenLens[:numCLenSyms] {
		zw.wr.WriteBits(uint(clenOf[sym]), 3)
	}
	for _, t := range toks {
		zw.wr.WriteSymbol(uint(t.sym), &clenEnc)
		if t.nb > 0 {
			zw.wr.WriteBits(uint(t.val), uint(t.nb))
		}
	}

	litEnc.Init(codeLits)
	distEnc.Init(codeDists)
	return litEnc, distEnc
}
