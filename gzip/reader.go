// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package gzip

import (
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/golib/hashutil"

	"github.com/gocompress/deflate/flate"
)

// Member describes a single GZIP member (RFC 1952 section 2.3), as
// discovered by Parse. Each concatenated member in a GZIP file produces
// one Member.
type Member struct {
	Name    string    // FNAME, if present
	Comment string    // FCOMMENT, if present
	ModTime time.Time // MTIME; zero if the stream recorded 0
	OS      byte
	Extra   []byte // FEXTRA payload, if present

	Offset int64  // file offset of the first byte of the DEFLATE payload
	Length int64  // length in bytes of the DEFLATE payload
	CRC32  uint32 // declared trailer CRC-32 of the uncompressed data
	ISIZE  uint32 // declared trailer size of the uncompressed data, mod 2^32
}

// Archive is the result of parsing a GZIP file: its path and member list.
type Archive struct {
	path    string
	Members []Member
}

// Parse walks every concatenated member of the GZIP file at path and
// returns their descriptors.
//
// Unlike ZIP, a GZIP member does not declare its compressed length up
// front; locating the next member requires actually inflating the
// current one. Parse does this, discarding the decompressed bytes, so
// that the resulting Length and Offset fields are exact.
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

	cr := &countReader{r: f}
	br := bufio.NewReader(cr)
	pos := func() int64 { return cr.n - int64(br.Buffered()) }

	arc = &Archive{path: path}
	for {
		if _, perr := br.Peek(1); perr != nil {
			break // clean EOF between members
		}
		arc.Members = append(arc.Members, readMember(br, pos))
	}
	if len(arc.Members) == 0 {
		panic(ErrCorrupt)
	}
	return arc, nil
}

// readMember reads one member's header, skips its DEFLATE payload by
// inflating it into ioutil.Discard, and reads its trailer.
func readMember(br *bufio.Reader, pos func() int64) Member {
	var m Member

	if readByte(br) != magic1 || readByte(br) != magic2 {
		panic(ErrCorrupt)
	}
	if method := readByte(br); method != methodDeflate {
		panic(ErrUnsupportedMethod)
	}
	flg := readByte(br)

	mtime := readUint32LE(br)
	if mtime != 0 {
		m.ModTime = time.Unix(int64(mtime), 0).UTC()
	}
	_ = readByte(br) // XFL: encoder-only hint, not needed to decode
	m.OS = readByte(br)

	if flg&flagExtra != 0 {
		n := readUint16LE(br)
		m.Extra = make([]byte, n)
		if _, err := io.ReadFull(br, m.Extra); err != nil {
			panic(io.ErrUnexpectedEOF)
		}
	}
	if flg&flagName != 0 {
		m.Name = readCString(br)
	}
	if flg&flagComment != 0 {
		m.Comment = readCString(br)
	}
	if flg&flagHCRC != 0 {
		readUint16LE(br) // header CRC-16; not verified
	}

	m.Offset = pos()
	fr := flate.NewReader(br, nil)
	if _, err := io.Copy(ioutil.Discard, fr); err != nil {
		panic(err)
	}
	m.Length = fr.InputOffset
	fr.Close()

	m.CRC32 = readUint32LE(br)
	m.ISIZE = readUint32LE(br)
	return m
}

// Extract inflates m's payload from the archive file, writing it to w,
// and verifies the result against the trailer captured by Parse.
func (a *Archive) Extract(m Member, w io.Writer) (err error) {
	defer errRecover(&err)

	f, oerr := os.Open(a.path)
	if oerr != nil {
		return oerr
	}
	defer f.Close()
	if _, err := f.Seek(m.Offset, io.SeekStart); err != nil {
		return err
	}

	fr := flate.NewReader(f, nil)
	defer fr.Close()

	crc := crc32.NewIEEE()
	n, cerr := io.Copy(io.MultiWriter(w, crc), fr)
	if cerr != nil {
		return cerr
	}
	if uint32(n) != m.ISIZE {
		return ErrCorrupt
	}
	if crc.Sum32() != m.CRC32 {
		return ErrCorrupt
	}
	return nil
}

// ExtractFile extracts m into a file named after m.Name (or, if absent,
// the archive's base name with a trailing ".gz" stripped) in the current
// directory.
func (a *Archive) ExtractFile(m Member) error {
	name := m.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(a.path), ".gz")
	}
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	return a.Extract(m, out)
}

// CombinedCRC32 returns the CRC-32 of the concatenation of every member's
// decompressed data, computed from the individual trailer CRCs without
// re-reading any payload.
func (a *Archive) CombinedCRC32() uint32 {
	var crc uint32
	for i, m := range a.Members {
		if i == 0 {
			crc = m.CRC32
			continue
		}
		crc = hashutil.CombineCRC32(crc32.IEEE, crc, m.CRC32, int64(m.ISIZE))
	}
	return crc
}

type countReader struct {
	r io.Reader
	n int64
}

func (c *countReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func readByte(br *bufio.Reader) byte {
	b, err := br.ReadByte()
	if err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	return b
}

func readUint16LE(br *bufio.Reader) uint16 {
	var buf [2]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint16(buf[:])
}

func readUint32LE(br *bufio.Reader) uint32 {
	var buf [4]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint32(buf[:])
}

func readCString(br *bufio.Reader) string {
	s, err := br.ReadString(0x00)
	if err != nil {
		panic(io.ErrUnexpectedEOF)
	}
	return s[:len(s)-1]
}
