// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/gocompress/deflate/internal/prefix"

const maxPrefixBits = 15

const (
	maxNumCLenSyms = 19
	maxNumLitSyms  = 286
	maxNumDistSyms = 30
)

var (
	lenCodes  prefix.RangeCodes // RFC section 3.2.5
	distCodes prefix.RangeCodes // RFC section 3.2.5

	lenRangeEnc  prefix.RangeEncoder // Maps a copy length to its symbol
	distRangeEnc prefix.RangeEncoder // Maps a copy distance to its symbol

	fixedLitTree  prefix.Decoder // RFC section 3.2.6
	fixedDistTree prefix.Decoder // RFC section 3.2.6
	fixedLitEnc   prefix.Encoder
	fixedDistEnc  prefix.Encoder
)

// RFC section 3.2.7: prefix code lengths for the code-lengths alphabet,
// in the order they appear in a dynamic block header.
var clenLens = [maxNumCLenSyms]uint{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

func init() {
	// RFC section 3.2.5: length codes 257..285 and distance codes 0..29.
	lenBits := make([]uint, maxNumLitSyms-257)
	for i := range lenBits {
		nb := uint(i/4 - 1)
		if i < 4 {
			nb = 0
		}
		lenBits[i] = nb
	}
	lenBits[len(lenBits)-1] = 0 // Symbol 285 has no extra bits and base 258
	lenCodes = prefix.MakeRangeCodes(3, lenBits)
	lenCodes[len(lenCodes)-1] = prefix.RangeCode{Base: 258, Len: 0}

	distBits := make([]uint, maxNumDistSyms)
	for i := range distBits {
		nb := uint(i/2 - 1)
		if i < 2 {
			nb = 0
		}
		distBits[i] = nb
	}
	distCodes = prefix.MakeRangeCodes(1, distBits)

	lenRangeEnc.Init(lenCodes)
	distRangeEnc.Init(distCodes)

	// RFC section 3.2.6: the fixed literal/length tree.
	var litCodes prefix.PrefixCodes
	for i := 0; i < 144; i++ {
		litCodes = append(litCodes, prefix.PrefixCode{Sym: uint32(i), Len: 8})
	}
	for i := 144; i < 256; i++ {
		litCodes = append(litCodes, prefix.PrefixCode{Sym: uint32(i), Len: 9})
	}
	for i := 256; i < 280; i++ {
		litCodes = append(litCodes, prefix.PrefixCode{Sym: uint32(i), Len: 7})
	}
	for i := 280; i < 288; i++ {
		litCodes = append(litCodes, prefix.PrefixCode{Sym: uint32(i), Len: 8})
	}
	if err := prefix.GeneratePrefixes(litCodes); err != nil {
		panic(err)
	}
	fixedLitTree.Init(litCodes)
	fixedLitEnc.Init(litCodes)

	// RFC section 3.2.6: the fixed distance tree.
	var distPrefixCodes prefix.PrefixCodes
	for i := 0; i < 32; i++ {
		distPrefixCodes = append(distPrefixCodes, prefix.PrefixCode{Sym: uint32(i), Len: 5})
	}
	if err := prefix.GeneratePrefixes(distPrefixCodes); err != nil {
		panic(err)
	}
	fixedDistTree.Init(distPrefixCodes)
	fixedDistEnc.Init(distPrefixCodes)
}

// RFC section 3.2.7 allows degenerate prefix trees with only one node, but
// requires a single bit for that node. This causes an unbalanced tree where
// the "1" code is unused. GeneratePrefixes's canonical assignment has no
// trouble with a lone code (GenerateLengths always gives it length 1), but Decoder.Init
// needs the alphabet to contain the unused "1" code's slot too, so that a
// corrupt stream that actually transmits it is rejected rather than aliased
// onto the one real symbol.
func handleDegenerateCodes(codes prefix.PrefixCodes, maxSyms uint32) prefix.PrefixCodes {
	if len(codes) != 1 {
		return codes
	}
	return append(codes, prefix.PrefixCode{Sym: maxSyms, Len: 1})
}
