// This file adapts the ring-buffer sliding window design of the Go
// standard library's compress/flate dict_decoder.go (Copyright 2016 The Go
// Authors, BSD-style license) to this package's field and method names.

package flate

// dictDecoder implements the sliding window a DEFLATE stream's
// back-references read from (RFC 1951 section 3.2.3). The window also
// doubles as the output buffer: bytes are written into hist as they are
// decoded, and ReadFlush periodically hands the newly written region back
// to the caller.
type dictDecoder struct {
	hist []byte // Sliding window, sized to the history size
	wrPos int    // Current write position within hist
	rdPos int    // Position up to which hist has already been flushed
	full  bool   // Whether hist has been completely written at least once
}

// Init readies dd with a window of the given size, optionally seeded with
// the tail of dict (as a prior compressor's Flush with the same dictionary
// would have left the window).
func (dd *dictDecoder) Init(size int, dict []byte) {
	*dd = dictDecoder{hist: dd.hist}
	if cap(dd.hist) < size {
		dd.hist = make([]byte, size)
	}
	dd.hist = dd.hist[:size]

	if len(dict) > len(dd.hist) {
		dict = dict[len(dict)-len(dd.hist):]
	}
	dd.wrPos = copy(dd.hist, dict)
	if dd.wrPos == len(dd.hist) {
		dd.wrPos = 0
		dd.full = true
	}
	dd.rdPos = dd.wrPos
}

// HistSize reports the configured window size.
func (dd *dictDecoder) HistSize() int { return len(dd.hist) }

// AvailSize reports how many bytes may still be written before the window
// must be flushed.
func (dd *dictDecoder) AvailSize() int { return len(dd.hist) - dd.wrPos }

// WriteSlice returns the writable tail of the window, for bulk copies such
// as a stored block's raw bytes.
func (dd *dictDecoder) WriteSlice() []byte { return dd.hist[dd.wrPos:] }

// WriteMark advances the write position by cnt after the caller has filled
// that many bytes of the slice returned by WriteSlice.
func (dd *dictDecoder) WriteMark(cnt int) { dd.wrPos += cnt }

// WriteByte appends a single literal byte to the window.
func (dd *dictDecoder) WriteByte(c byte) {
	dd.hist[dd.wrPos] = c
	dd.wrPos++
}

// WriteCopy copies length bytes from dist bytes behind the write position
// to the write position, handling the overlapping case where dist <
// length. It returns the number of bytes actually written, which may be
// less than length if the window fills up first.
func (dd *dictDecoder) WriteCopy(dist, length int) int {
	if dist > len(dd.hist) || (!dd.full && dist > dd.wrPos) {
		panic(ErrCorrupt)
	}

	dstBase := dd.wrPos
	dstPos := dstBase
	srcPos := dstPos - dist
	endPos := dstPos + length
	if endPos > len(dd.hist) {
		endPos = len(dd.hist)
	}

	if srcPos < 0 {
		srcPos += len(dd.hist)
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:])
		srcPos = 0
	}
	for dstPos < endPos {
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:dstPos])
	}

	dd.wrPos = dstPos
	return dstPos - dstBase
}

// ReadFlush returns the bytes written since the last ReadFlush call,
// wrapping the window back to the start once it is completely full.
func (dd *dictDecoder) ReadFlush() []byte {
	toRead := dd.hist[dd.rdPos:dd.wrPos]
	dd.rdPos = dd.wrPos
	if dd.wrPos == len(dd.hist) {
		dd.wrPos, dd.rdPos = 0, 0
		dd.full = true
	}
	return toRead
}
