// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zip

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/golib/hashutil"

	"github.com/gocompress/deflate/flate"
)

// Entry describes a single ZIP local file header. Its fields come from the
// local header alone; they are not compared with the matching central
// directory record (Parse only checks that the entry counts agree).
type Entry struct {
	Name              string
	CompressionMethod uint16
	CompressedSize    uint32
	UncompressedSize  uint32
	CRC32             uint32
	ModTime           time.Time

	Offset int64 // file offset of the first byte of the compressed payload
}

// Archive is the result of parsing a ZIP file: its path and entry list.
type Archive struct {
	path    string
	Entries []Entry

	// Zip64 reports whether a Zip64 end-of-central-directory record or
	// locator was seen. Zip64 archives are recognized but not fully
	// walked: an archive this large is out of scope for the entry-count
	// cross-check below.
	Zip64 bool
}

// Parse walks the local file headers of the ZIP file at path, then
// cross-checks the walk against the central directory and the end of
// central directory record.
func Parse(path string) (arc *Archive, err error) {
	defer func() {
		if err != nil {
			arc = nil
		}
	}()
	defer errRecover(&err)

	f, oerr := os.Open(path)
	if oerr != nil {
		return nil, oerr
	}
	defer f.Close()

	arc = &Archive{path: path}
	var cfhCount int
	var statedCount int
	var sawECDR bool

	var sig [4]byte
	for {
		if _, rerr := io.ReadFull(f, sig[:]); rerr != nil {
			break // EOF immediately after the last record is not an error
		}
		switch binary.LittleEndian.Uint32(sig[:]) {
		case sigLFH:
			arc.Entries = append(arc.Entries, readLocalFileHeader(f))
		case sigCFH:
			skipCentralFileHeader(f)
			cfhCount++
		case sigECDR64:
			arc.Zip64 = true
			skipZip64ECDR(f)
		case sigECDL64:
			arc.Zip64 = true
			seekForward(f, 4+8+4)
		case sigECDR:
			sawECDR = true
			statedCount = readECDR(f)
		default:
			panic(ErrBadSignature)
		}
	}
	if !sawECDR {
		panic(ErrCorrupt)
	}
	if !arc.Zip64 {
		if cfhCount != len(arc.Entries) || statedCount != len(arc.Entries) {
			panic(ErrBadSignature)
		}
	}
	return arc, nil
}

func readLocalFileHeader(f *os.File) Entry {
	var hdr [lfhFixedSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	method := binary.LittleEndian.Uint16(hdr[4:6])
	modTime := binary.LittleEndian.Uint16(hdr[6:8])
	modDate := binary.LittleEndian.Uint16(hdr[8:10])
	crc := binary.LittleEndian.Uint32(hdr[10:14])
	compSize := binary.LittleEndian.Uint32(hdr[14:18])
	uncompSize := binary.LittleEndian.Uint32(hdr[18:22])
	nameLen := binary.LittleEndian.Uint16(hdr[22:24])
	extraLen := binary.LittleEndian.Uint16(hdr[24:26])

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(f, name); err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	seekForward(f, int64(extraLen))

	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		panic(err)
	}
	seekForward(f, int64(compSize))

	return Entry{
		Name:              string(name),
		CompressionMethod: method,
		CompressedSize:    compSize,
		UncompressedSize:  uncompSize,
		CRC32:             crc,
		ModTime:           dosTime(modDate, modTime),
		Offset:            offset,
	}
}

func skipCentralFileHeader(f *os.File) {
	var hdr [cfhFixedSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	nameLen := binary.LittleEndian.Uint16(hdr[24:26])
	extraLen := binary.LittleEndian.Uint16(hdr[26:28])
	commentLen := binary.LittleEndian.Uint16(hdr[28:30])
	seekForward(f, int64(nameLen)+int64(extraLen)+int64(commentLen))
}

// readECDR reads the end of central directory record and returns the
// total number of entries it declares.
func readECDR(f *os.File) int {
	var hdr [18]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	total := binary.LittleEndian.Uint16(hdr[6:8])
	commentLen := binary.LittleEndian.Uint16(hdr[16:18])
	seekForward(f, int64(commentLen))
	return int(total)
}

// skipZip64ECDR reads only the record size, since this repo recognizes
// but does not fully walk Zip64 archives (see Archive.Zip64).
func skipZip64ECDR(f *os.File) {
	var buf [8]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	size := binary.LittleEndian.Uint64(buf[:])
	seekForward(f, int64(size))
}

func seekForward(f *os.File, n int64) {
	if n == 0 {
		return
	}
	if _, err := f.Seek(n, io.SeekCurrent); err != nil {
		panic(err)
	}
}

// dosTime converts an MS-DOS date/time pair, as used by ZIP local file
// headers, to a time.Time in UTC.
func dosTime(date, time_ uint16) time.Time {
	year := int(date>>9) + 1980
	month := int(date>>5) & 0xf
	day := int(date) & 0x1f
	hour := int(time_ >> 11)
	min := int(time_>>5) & 0x3f
	sec := int(time_&0x1f) * 2
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

// Extract decompresses e's payload, writing it to w, and verifies the
// result against e's declared size and CRC-32.
func (a *Archive) Extract(e Entry, w io.Writer) (err error) {
	defer errRecover(&err)

	f, oerr := os.Open(a.path)
	if oerr != nil {
		return oerr
	}
	defer f.Close()
	if _, err := f.Seek(e.Offset, io.SeekStart); err != nil {
		return err
	}
	payload := io.LimitReader(f, int64(e.CompressedSize))

	crc := crc32.NewIEEE()
	var n int64
	switch e.CompressionMethod {
	case methodStore:
		n, err = io.Copy(io.MultiWriter(w, crc), payload)
	case methodDeflate:
		fr := flate.NewReader(payload, nil)
		defer fr.Close()
		n, err = io.Copy(io.MultiWriter(w, crc), fr)
	default:
		return ErrUnsupportedMethod
	}
	if err != nil {
		return err
	}
	if uint32(n) != e.UncompressedSize {
		return ErrCorrupt
	}
	if crc.Sum32() != e.CRC32 {
		return ErrCorrupt
	}
	return nil
}

// ExtractFile extracts e relative to the current directory. Entries
// whose Name ends in "/" are created as directories with no payload.
func (a *Archive) ExtractFile(e Entry) error {
	if strings.HasSuffix(e.Name, "/") {
		return os.MkdirAll(e.Name, 0o777)
	}
	if dir := filepath.Dir(e.Name); dir != "." {
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return err
		}
	}
	out, err := os.Create(e.Name)
	if err != nil {
		return err
	}
	defer out.Close()
	return a.Extract(e, out)
}

// CombinedCRC32 returns the CRC-32 of the concatenation of every entry's
// decompressed data, computed from the individual entry CRCs without
// re-reading any payload.
func (a *Archive) CombinedCRC32() uint32 {
	var crc uint32
	for i, e := range a.Entries {
		if i == 0 {
			crc = e.CRC32
			continue
		}
		crc = hashutil.CombineCRC32(crc32.IEEE, crc, e.CRC32, int64(e.UncompressedSize))
	}
	return crc
}
