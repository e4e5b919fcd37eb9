// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

const (
	minMatchLen  = 3
	maxMatchLen  = 258
	maxMatchDist = 1 << 15
)

// token is a single step of an LZ77 parse: either a literal byte (length
// and dist both zero) or a copy of length bytes from dist bytes back.
type token struct {
	lit    byte
	length uint32
	dist   uint32
}

func hash3(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// matcher finds back-references in a window using a hash-chained search
// over 3-byte prefixes (RFC 1951 section 4).
type matcher struct {
	head map[uint32]int32 // hash(win[i:i+3]) -> most recent position i
	prev []int32          // position -> previous position sharing the same hash
}

func (m *matcher) reset(n int) {
	m.head = make(map[uint32]int32, n/4+1)
	if cap(m.prev) < n {
		m.prev = make([]int32, n)
	} else {
		m.prev = m.prev[:n]
	}
}

// insert records win position i in its hash chain.
func (m *matcher) insert(win []byte, i int) {
	h := hash3(win[i:])
	if prev, ok := m.head[h]; ok {
		m.prev[i] = prev
	} else {
		m.prev[i] = -1
	}
	m.head[h] = int32(i)
}

// find walks the hash chain rooted at win[i:i+3], for at most chainLimit
// steps, for the longest match starting no further back than
// maxMatchDist. It reports (0, 0) if no match of at least minMatchLen
// exists.
func (m *matcher) find(win []byte, i, chainLimit int) (length, dist int) {
	maxLen := len(win) - i
	if maxLen > maxMatchLen {
		maxLen = maxMatchLen
	}
	minPos := i - maxMatchDist
	if minPos < 0 {
		minPos = 0
	}

	h := hash3(win[i:])
	j, ok := m.head[h]
	for chain := 0; ok && int(j) >= minPos && chain < chainLimit; chain++ {
		if n := commonPrefixLen(win[int(j):], win[i:], maxLen); n > length {
			length, dist = n, i-int(j)
			if n >= maxLen {
				break
			}
		}
		pj := m.prev[j]
		if pj < 0 {
			break
		}
		j = pj
	}
	return length, dist
}

func commonPrefixLen(a, b []byte, max int) int {
	n := 0
	for n < max && a[n] == b[n] {
		n++
	}
	return n
}

// tokenize runs the LZ77 match finder over win[dictLen:], using win[:dictLen]
// purely as match-source history that is never itself emitted as tokens.
// chainLimit bounds the hash-chain walk per position (see Writer.level).
func tokenize(win []byte, dictLen, chainLimit int) []token {
	var toks []token
	var m matcher
	m.reset(len(win))

	canHash := func(i int) bool { return i+minMatchLen <= len(win) }

	for i := 0; i < dictLen; i++ {
		if canHash(i) {
			m.insert(win, i)
		}
	}

	for i := dictLen; i < len(win); {
		var length, dist int
		if canHash(i) {
			length, dist = m.find(win, i, chainLimit)
		}
		if length >= minMatchLen {
			toks = append(toks, token{length: uint32(length), dist: uint32(dist)})
			for end := i + length; i < end; i++ {
				if canHash(i) {
					m.insert(win, i)
				}
			}
		} else {
			if canHash(i) {
				m.insert(win, i)
			}
			toks = append(toks, token{lit: win[i]})
			i++
		}
	}
	return toks
}
