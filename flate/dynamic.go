// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "github.com/gocompress/deflate/internal/prefix"

// readPrefixCodes reads the literal/length and distance prefix tables for a
// dynamic block, as described in RFC 1951 section 3.2.7, and initializes hl
// and hd to decode them.
func (fr *Reader) readPrefixCodes(hl, hd *prefix.Decoder) {
	br := &fr.rd
	numLitSyms := br.ReadBits(5) + 257
	numDistSyms := br.ReadBits(5) + 1
	numCLenSyms := br.ReadBits(4) + 4
	if numLitSyms > maxNumLitSyms || numDistSyms > maxNumDistSyms {
		panic(ErrCorrupt)
	}

	// Read the code-lengths prefix table.
	var codeCLensArr [maxNumCLenSyms]prefix.PrefixCode // Indexed by symbol, may have holes
	for _, sym := range clenLens[:numCLenSyms] {
		clen := br.ReadBits(3)
		if clen > 0 {
			codeCLensArr[sym] = prefix.PrefixCode{Sym: uint32(sym), Len: uint32(clen)}
		}
	}
	codeCLens := codeCLensArr[:0] // Compact away the holes
	for _, c := range codeCLensArr {
		if c.Len > 0 {
			codeCLens = append(codeCLens, c)
		}
	}
	codeCLens = handleDegenerateCodes(codeCLens, maxNumCLenSyms)
	if err := prefix.GeneratePrefixes(codeCLens); err != nil {
		panic(ErrCorrupt)
	}
	var clenTree prefix.Decoder
	clenTree.Init(codeCLens)

	// Use the code-lengths table to decode the HLIT and HDIST prefix tables.
	var codesArr [maxNumLitSyms + maxNumDistSyms]prefix.PrefixCode
	var clenLast uint
	codeLits := codesArr[:0]
	codeDists := codesArr[maxNumLitSyms:maxNumLitSyms]
	appendCode := func(sym, clen uint) {
		if sym < numLitSyms {
			codeLits = append(codeLits, prefix.PrefixCode{Sym: uint32(sym), Len: uint32(clen)})
		} else {
			codeDists = append(codeDists, prefix.PrefixCode{Sym: uint32(sym - numLitSyms), Len: uint32(clen)})
		}
	}
	for sym, maxSyms := uint(0), numLitSyms+numDistSyms; sym < maxSyms; {
		clen := br.ReadSymbol(&clenTree)
		if clen < 16 {
			// Literal bit-length symbol used.
			if clen > 0 {
				appendCode(sym, clen)
			}
			clenLast = clen
			sym++
		} else {
			// Repeater symbol used.
			var repCnt uint
			switch repSym := clen; repSym {
			case 16:
				if sym == 0 {
					panic(ErrCorrupt)
				}
				clen = clenLast
				repCnt = 3 + br.ReadBits(2)
			case 17:
				clen = 0
				repCnt = 3 + br.ReadBits(3)
			case 18:
				clen = 0
				repCnt = 11 + br.ReadBits(7)
			default:
				panic(ErrCorrupt)
			}

			if clen > 0 {
				for symEnd := sym + repCnt; sym < symEnd; sym++ {
					appendCode(sym, clen)
				}
			} else {
				sym += repCnt
			}
			if sym > maxSyms {
				panic(ErrCorrupt)
			}
		}
	}

	codeLits = handleDegenerateCodes(codeLits, maxNumLitSyms)
	if err := prefix.GeneratePrefixes(codeLits); err != nil {
		panic(ErrCorrupt)
	}
	hl.Init(codeLits)

	codeDists = handleDegenerateCodes(codeDists, maxNumDistSyms)
	if err := prefix.GeneratePrefixes(codeDists); err != nil {
		panic(ErrCorrupt)
	}
	hd.Init(codeDists)
}
