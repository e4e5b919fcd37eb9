// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zip

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gocompress/deflate/flate"
)

type testFile struct {
	name    string
	data    []byte
	deflate bool
}

// buildZip assembles a minimal, spec-conformant ZIP archive (local file
// headers, central directory, end of central directory record) from a
// list of files, using STORE or DEFLATE per file.
func buildZip(t *testing.T, files []testFile) []byte {
	t.Helper()

	var buf bytes.Buffer
	type placed struct {
		testFile
		offset   int64
		compSize uint32
		crc      uint32
	}
	var entries []placed

	le16 := func(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }
	le32 := func(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }

	for _, f := range files {
		var payload []byte
		method := uint16(methodStore)
		if f.deflate {
			method = methodDeflate
			var pb bytes.Buffer
			zw := flate.NewWriter(&pb, nil)
			if _, err := zw.Write(f.data); err != nil {
				t.Fatalf("write error: %v", err)
			}
			if err := zw.Close(); err != nil {
				t.Fatalf("close error: %v", err)
			}
			payload = pb.Bytes()
		} else {
			payload = f.data
		}
		crc := crc32.ChecksumIEEE(f.data)

		buf.Write(le32(sigLFH))
		buf.Write(le16(20))       // version needed to extract
		buf.Write(le16(0))        // general purpose bit flag
		buf.Write(le16(method))   // compression method
		buf.Write(le16(0))        // last mod file time
		buf.Write(le16(0))        // last mod file date
		buf.Write(le32(crc))      // crc-32
		buf.Write(le32(uint32(len(payload)))) // compressed size
		buf.Write(le32(uint32(len(f.data))))  // uncompressed size
		buf.Write(le16(uint16(len(f.name))))  // file name length
		buf.Write(le16(0))                    // extra field length
		buf.WriteString(f.name)
		payloadStart := int64(buf.Len())
		buf.Write(payload)

		entries = append(entries, placed{
			testFile: f,
			offset:   payloadStart,
			compSize: uint32(len(payload)),
			crc:      crc,
		})
	}

	cdStart := int64(buf.Len())
	for _, e := range entries {
		method := uint16(methodStore)
		if e.deflate {
			method = methodDeflate
		}
		buf.Write(le32(sigCFH))
		buf.Write(le16(20))                            // version made by
		buf.Write(le16(20))                            // version needed to extract
		buf.Write(le16(0))                              // gpbf
		buf.Write(le16(method))                          // method
		buf.Write(le16(0))                              // mod time
		buf.Write(le16(0))                              // mod date
		buf.Write(le32(e.crc))                           // crc
		buf.Write(le32(e.compSize))                      // compressed size
		buf.Write(le32(uint32(len(e.data))))             // uncompressed size
		buf.Write(le16(uint16(len(e.name))))             // file name length
		buf.Write(le16(0))                              // extra field length
		buf.Write(le16(0))                              // file comment length
		buf.Write(le16(0))                              // disk number start
		buf.Write(le16(0))                              // internal file attributes
		buf.Write(le32(0))                               // external file attributes
		lfhOffset := e.offset - int64(lfhFixedSize) - int64(len(e.name)) - 4
		buf.Write(le32(uint32(lfhOffset)))
		buf.WriteString(e.name)
	}
	cdSize := int64(buf.Len()) - cdStart

	buf.Write(le32(sigECDR))
	buf.Write(le16(0)) // disk number
	buf.Write(le16(0)) // disk where central directory starts
	buf.Write(le16(uint16(len(entries))))
	buf.Write(le16(uint16(len(entries))))
	buf.Write(le32(uint32(cdSize)))
	buf.Write(le32(uint32(cdStart)))
	buf.Write(le16(0)) // comment length

	return buf.Bytes()
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.zip")
	if err := ioutil.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestParseExtractStoreAndDeflate(t *testing.T) {
	files := []testFile{
		{name: "stored.txt", data: []byte("stored verbatim"), deflate: false},
		{name: "deflated.txt", data: []byte("deflated payload, deflated payload, deflated payload"), deflate: true},
	}
	path := writeTemp(t, buildZip(t, files))

	arc, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(arc.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(arc.Entries))
	}

	for i, f := range files {
		e := arc.Entries[i]
		wantMethod := uint16(methodStore)
		if f.deflate {
			wantMethod = methodDeflate
		}
		want := Entry{
			Name:              f.name,
			CompressionMethod: wantMethod,
			UncompressedSize:  uint32(len(f.data)),
			CRC32:             crc32.ChecksumIEEE(f.data),
		}
		// CompressedSize varies with how flate happens to compress the
		// payload; ModTime and Offset aren't pinned down by this test either.
		diff := cmp.Diff(want, e, cmpopts.IgnoreFields(Entry{}, "CompressedSize", "ModTime", "Offset"))
		if diff != "" {
			t.Fatalf("entry %d: parsed entry mismatch (-want +got):\n%s", i, diff)
		}

		var out bytes.Buffer
		if err := arc.Extract(e, &out); err != nil {
			t.Fatalf("entry %d: Extract error: %v", i, err)
		}
		if !bytes.Equal(out.Bytes(), f.data) {
			t.Fatalf("entry %d: got %q, want %q", i, out.Bytes(), f.data)
		}
	}
}

func TestParseDirectoryEntry(t *testing.T) {
	files := []testFile{{name: "dir/", data: nil, deflate: false}}
	path := writeTemp(t, buildZip(t, files))

	arc, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(dir)

	if err := arc.ExtractFile(arc.Entries[0]); err != nil {
		t.Fatalf("ExtractFile error: %v", err)
	}
	fi, err := os.Stat("dir")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !fi.IsDir() {
		t.Fatalf("expected dir/ to be created as a directory")
	}
}

func TestParseMissingECDR(t *testing.T) {
	files := []testFile{{name: "a.txt", data: []byte("a"), deflate: false}}
	data := buildZip(t, files)

	// Truncate before the end of central directory record.
	var cut int
	for i := 0; i+4 <= len(data); i++ {
		if binary.LittleEndian.Uint32(data[i:i+4]) == sigECDR {
			cut = i
			break
		}
	}
	path := writeTemp(t, data[:cut])

	if _, err := Parse(path); err == nil {
		t.Fatalf("expected an error when the end of central directory record is missing")
	}
}

func TestParseUnsupportedMethod(t *testing.T) {
	files := []testFile{{name: "a.txt", data: []byte("a"), deflate: false}}
	data := buildZip(t, files)

	// Corrupt the local file header's compression method field to an
	// unsupported value (LFH fixed fields start right after the 4-byte
	// signature; method is the third 2-byte field).
	data[4+4] = 99
	path := writeTemp(t, data)

	arc, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	var out bytes.Buffer
	if err := arc.Extract(arc.Entries[0], &out); err != ErrUnsupportedMethod {
		t.Fatalf("got %v, want %v", err, ErrUnsupportedMethod)
	}
}
