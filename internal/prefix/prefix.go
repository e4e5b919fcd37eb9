// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package prefix implements canonical Huffman (prefix) coding along with
// the bit-level Reader and Writer primitives needed to pack and unpack
// those codes from a byte stream. It centralizes the logic that the
// flate package's literal/length/distance alphabets, and any other
// canonical-Huffman-based format, both need: building lengths from
// symbol frequencies, turning lengths into canonical bit patterns, and
// looking symbols up quickly once decoding.
package prefix

import (
	"sort"

	"github.com/gocompress/deflate/internal"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "prefix: " + string(e) }

// valueBits bounds the bit-length of any single prefix code this package
// will generate or accept. It is far larger than the 15-bit limit DEFLATE
// itself imposes (flate clamps via GenerateLengths' maxBits argument), but
// the package itself is not specific to DEFLATE's alphabet sizes.
const valueBits = 32

const (
	countBits  = 6 // Bit-width of the length field packed into a chunk entry
	countMask  = (1 << countBits) - 1
	maxChunkBits = 9 // Tunable size of the first-level lookup table
)

// PrefixCode is a single entry in a canonical Huffman code: the symbol it
// represents, its bit pattern once assigned, and either its frequency
// (input to GenerateLengths) or its length (input to GeneratePrefixes).
type PrefixCode struct {
	Sym uint32 // The symbol being mapped
	Val uint32 // Bit pattern of the prefix code, already bit-reversed for LSB-first transmission
	Cnt uint32 // Frequency count, used as input to GenerateLengths
	Len uint32 // Bit-length of the prefix code
}

// PrefixCodes is a list of prefix codes for an entire alphabet.
type PrefixCodes []PrefixCode

func (pc PrefixCodes) Len() int      { return len(pc) }
func (pc PrefixCodes) Swap(i, j int) { pc[i], pc[j] = pc[j], pc[i] }

type byCount struct{ PrefixCodes }

func (pc byCount) Less(i, j int) bool {
	if pc.PrefixCodes[i].Cnt != pc.PrefixCodes[j].Cnt {
		return pc.PrefixCodes[i].Cnt < pc.PrefixCodes[j].Cnt
	}
	return pc.PrefixCodes[i].Sym < pc.PrefixCodes[j].Sym
}

type bySymbol struct{ PrefixCodes }

func (pc bySymbol) Less(i, j int) bool {
	return pc.PrefixCodes[i].Sym < pc.PrefixCodes[j].Sym
}

// SortByCount sorts the codes by ascending frequency count, the order
// GenerateLengths requires.
func (pc PrefixCodes) SortByCount() { sort.Sort(byCount{pc}) }

// SortBySymbol sorts the codes by ascending symbol value, the order
// GeneratePrefixes requires.
func (pc PrefixCodes) SortBySymbol() { sort.Sort(bySymbol{pc}) }

// Length reports the total number of bits needed to encode every symbol
// in pc exactly Cnt times at its assigned Len.
func (pc PrefixCodes) Length() (n uint64) {
	for _, c := range pc {
		n += uint64(c.Cnt) * uint64(c.Len)
	}
	return n
}

// checkLengths reports whether the assigned lengths form a complete
// prefix code (the Kraft sum equals one), which is required of any
// alphabet with more than one symbol.
func (pc PrefixCodes) checkLengths() bool {
	if len(pc) <= 1 {
		return true
	}
	var maxLen uint32
	for _, c := range pc {
		if c.Len == 0 {
			return false
		}
		if c.Len > maxLen {
			maxLen = c.Len
		}
	}
	var sum uint64
	for _, c := range pc {
		sum += uint64(1) << (maxLen - c.Len)
	}
	return sum == uint64(1)<<maxLen
}

// checkPrefixes reports whether any two codes have overlapping bit
// patterns once masked down to the shorter of the two lengths.
func (pc PrefixCodes) checkPrefixes() bool {
	for i, c1 := range pc {
		for j, c2 := range pc {
			if i == j {
				continue
			}
			minLen := c1.Len
			if c2.Len < minLen {
				minLen = c2.Len
			}
			mask := uint32(1)<<minLen - 1
			if c1.Val&mask == c2.Val&mask {
				return false
			}
		}
	}
	return true
}

// checkCanonical reports whether the Val assigned to every code matches
// what GeneratePrefixes would produce from the current Sym/Len pairs.
func (pc PrefixCodes) checkCanonical() bool {
	vals, err := canonicalValues(pc)
	if err != nil {
		return false
	}
	for i, c := range pc {
		if c.Val != vals[i] {
			return false
		}
	}
	return true
}

// GenerateLengths assigns the Len field of every code in codes, which
// must already be sorted by ascending Cnt (see SortByCount), such that
// the result is an optimal prefix code bounded to maxBits per symbol.
//
// This builds an unbounded Huffman tree using the classic two-queue
// merge over the pre-sorted frequencies, then folds any code exceeding
// maxBits back down using the same overflow-redistribution zlib's
// gen_bitlen applies: steal a leaf from the deepest under-full level and
// donate it (as two leaves) to the level above, which keeps the Kraft
// sum exactly one while shortening the longest codes.
func GenerateLengths(codes PrefixCodes, maxBits uint) error {
	if maxBits == 0 || maxBits > valueBits {
		return Error("invalid maximum bit-length")
	}
	n := len(codes)
	for i := 1; i < n; i++ {
		if codes[i].Cnt < codes[i-1].Cnt {
			return Error("codes are not sorted by ascending count")
		}
	}
	if n == 0 {
		return nil
	}
	if n == 1 {
		codes[0].Len = 1
		return nil
	}
	if uint64(n) > uint64(1)<<maxBits {
		return Error("maximum bit-length too small for alphabet size")
	}

	depths := huffmanDepths(codes)

	var count [valueBits + 2]int
	for _, d := range depths {
		l := d
		if l > uint32(maxBits) {
			l = uint32(maxBits)
		}
		count[l]++
	}
	var kraft uint64 // Kraft sum in units of 2^-maxBits
	for l := uint(1); l <= maxBits; l++ {
		kraft += uint64(count[l]) << (maxBits - l)
	}
	for kraft > uint64(1)<<maxBits {
		l := maxBits - 1
		for l > 0 && count[l] == 0 {
			l--
		}
		count[l]--
		count[l+1] += 2
		count[maxBits]--
		kraft--
	}

	l := maxBits
	remaining := count[l]
	for i := 0; i < n; i++ {
		for remaining == 0 && l > 1 {
			l--
			remaining = count[l]
		}
		codes[i].Len = uint32(l)
		remaining--
	}
	return nil
}

// huffmanDepths computes the unbounded Huffman code length of every leaf
// in codes (already sorted by ascending Cnt), using the standard
// in-place two-queue merge: one queue walks the sorted leaves, the other
// walks internal nodes in the order they are created, which is itself
// non-decreasing in weight because leaves are processed in sorted order.
func huffmanDepths(codes PrefixCodes) []uint32 {
	n := len(codes)
	weight := make([]uint64, n, 2*n-1)
	for i, c := range codes {
		weight[i] = uint64(c.Cnt)
	}
	parent := make([]int32, 2*n-1)
	for i := range parent {
		parent[i] = -1
	}

	leafIdx, nodeIdx := 0, n
	take := func() int {
		useLeaf := leafIdx < n
		useNode := nodeIdx < len(weight)
		switch {
		case useLeaf && useNode:
			if weight[leafIdx] <= weight[nodeIdx] {
				i := leafIdx
				leafIdx++
				return i
			}
			i := nodeIdx
			nodeIdx++
			return i
		case useLeaf:
			i := leafIdx
			leafIdx++
			return i
		default:
			i := nodeIdx
			nodeIdx++
			return i
		}
	}
	for next := n; next < 2*n-1; next++ {
		i1, i2 := take(), take()
		parent[i1] = int32(next)
		parent[i2] = int32(next)
		weight = append(weight, weight[i1]+weight[i2])
	}

	root := int32(2*n - 2)
	depths := make([]uint32, n)
	for i := 0; i < n; i++ {
		node := int32(i)
		for node != root {
			node = parent[node]
			depths[i]++
		}
	}
	return depths
}

// GeneratePrefixes assigns the Val field of every code in codes, which
// must already be sorted by ascending Sym (see SortBySymbol) and carry a
// valid Len, to the canonical bit-reversed (LSB-first) code for that
// symbol per RFC 1951 section 3.2.2.
func GeneratePrefixes(codes PrefixCodes) error {
	vals, err := canonicalValues(codes)
	if err != nil {
		return err
	}
	for i := range codes {
		codes[i].Val = vals[i]
	}
	return nil
}

// canonicalValues computes, without mutating codes, the canonical
// bit-reversed value each code would be assigned by GeneratePrefixes.
func canonicalValues(codes PrefixCodes) ([]uint32, error) {
	n := len(codes)
	if n == 0 {
		return nil, nil
	}

	var maxLen uint32
	for i, c := range codes {
		if c.Len == 0 || c.Len > valueBits {
			return nil, Error("invalid code length")
		}
		if i > 0 && codes[i-1].Sym >= c.Sym {
			return nil, Error("symbols are not sorted and unique")
		}
		if c.Len > maxLen {
			maxLen = c.Len
		}
	}

	var sum uint64
	for _, c := range codes {
		sum += uint64(1) << (maxLen - c.Len)
	}
	if n > 1 && sum != uint64(1)<<maxLen {
		return nil, Error("lengths do not form a complete prefix code")
	}

	var blCount [valueBits + 2]uint32
	for _, c := range codes {
		blCount[c.Len]++
	}
	var code uint32
	var nextCode [valueBits + 2]uint32
	for bits := uint32(1); bits <= maxLen; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	vals := make([]uint32, n)
	for i, c := range codes {
		raw := nextCode[c.Len]
		nextCode[c.Len]++
		vals[i] = internal.ReverseUint32N(raw, uint(c.Len))
	}
	return vals, nil
}

// RangeCode describes an exponential-Golomb-style range: a base offset
// and the number of extra bits that follow a symbol to select a specific
// value within [Base, Base+1<<Len).
type RangeCode struct {
	Base uint32
	Len  uint32
}

// End reports the offset immediately following the last value this range covers.
func (rc RangeCode) End() uint32 { return rc.Base + 1<<rc.Len }

// RangeCodes is an ordered table of RangeCode, indexed by symbol, such as
// DEFLATE's length or distance extra-bits tables (RFC 1951 section 3.2.5).
type RangeCodes []RangeCode

// Base reports the smallest offset any range in rcs covers.
func (rcs RangeCodes) Base() uint32 {
	if len(rcs) == 0 {
		return 0
	}
	return rcs[0].Base
}

// End reports the offset immediately following the largest value any
// range in rcs covers.
func (rcs RangeCodes) End() uint32 {
	if len(rcs) == 0 {
		return 0
	}
	return rcs[len(rcs)-1].End()
}

// checkValid reports whether rcs is non-empty, has non-decreasing bases,
// has no gaps between consecutive ranges, and never moves backward
// (each range's End is at least the one before it, even if its Base overlaps).
func (rcs RangeCodes) checkValid() bool {
	if len(rcs) == 0 {
		return false
	}
	for i := 1; i < len(rcs); i++ {
		prev, cur := rcs[i-1], rcs[i]
		if cur.Base < prev.Base || cur.Base > prev.End() || cur.End() < prev.End() {
			return false
		}
	}
	return true
}

// MakeRangeCodes builds a RangeCodes table starting at base, where each
// successive range's Base picks up exactly where the previous one's End
// left off, and bits[i] is the extra-bit width of range i.
func MakeRangeCodes(base uint, bits []uint) RangeCodes {
	rcs := make(RangeCodes, len(bits))
	b := uint32(base)
	for i, nb := range bits {
		rcs[i] = RangeCode{Base: b, Len: uint32(nb)}
		b += 1 << nb
	}
	return rcs
}

// RangeEncoder maps an offset back to the symbol (index into the table
// it was initialized with) whose range contains it.
type RangeEncoder struct {
	codes RangeCodes
}

// Init readies re to encode offsets covered by codes.
func (re *RangeEncoder) Init(codes RangeCodes) { re.codes = codes }

// Encode returns the index of the last range in the table whose Base is
// at or before offset, which is the range offset falls within.
func (re *RangeEncoder) Encode(offset uint) uint {
	i := sort.Search(len(re.codes), func(i int) bool {
		return uint64(re.codes[i].Base) > uint64(offset)
	})
	return uint(i - 1)
}

// extendUint32s returns a slice with length n, reusing s's storage if possible.
func extendUint32s(s []uint32, n int) []uint32 {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s[:cap(s)], make([]uint32, n-cap(s))...)
}

// extendSliceUint32s returns a slice with length n, reusing s's storage if possible.
func extendSliceUint32s(s [][]uint32, n int) [][]uint32 {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s[:cap(s)], make([][]uint32, n-cap(s))...)
}
