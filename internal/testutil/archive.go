package testutil

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// Layout of an InstallShield v3 archive, derived independently of the reader.
const (
	Signature uint32 = 0x8C655D13

	// signature(4) + 8 + file_count(2) + 4 + archive_size(4) + 19 + toc_address(4) + 4 + dir_count(2)
	HeaderLen = 51
	DataStart = 255

	// file_count(2) + chunk_size(2) + name_len(2)
	DirRecordFixedLen = 6
	// 7 + compressed_size(4) + 12 + chunk_size(2) + 4 + name_len(1)
	FileRecordFixedLen = 30

	// TOCAddressField is the header offset of toc_address.
	TOCAddressField = 4 + 8 + 2 + 4 + 4 + 19
)

// Imploded payloads and their plaintexts.
const (
	ReadmeImploded = "0004e4940943a64d191063deb8a153c60d9d390a01ff"
	ReadmeText     = "readme contents\n"
	HelloImploded  = "010414db34757c1fb38132e01f"
	HelloText      = "hello, hello, hello!"
	AIImploded     = "00048224258f807f"
	AIText         = "AIAIAIAIAIAIA"
	EmptyImploded  = "000401ff"
)

// Implode decodes one of the hex payload constants.
func Implode(tb testing.TB, s string) []byte {
	tb.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(tb, err)
	return b
}

// TestFile describes a file record and its payload.
type TestFile struct {
	Name    string
	Payload []byte
	Pad     int

	// SizeOverride replaces the recorded compressed size when non-zero.
	SizeOverride uint32
	// ChunkOverride replaces the recorded chunk size when non-zero.
	ChunkOverride uint16
}

// TestDir describes a directory record and its files.
type TestDir struct {
	Name  string
	Files []TestFile
	Pad   int

	ChunkOverride uint16
}

// TestArchive is an encoded archive.
type TestArchive struct {
	Data       []byte
	TOCAddress int
}

// BuildArchive lays out a header, the payloads from DataStart on, and the
// table of contents after the last payload. Reserved bytes are filled with
// non-zero garbage so misplaced skips are noticed.
func BuildArchive(tb testing.TB, dirs []TestDir) TestArchive {
	tb.Helper()
	le := binary.LittleEndian

	var payloads bytes.Buffer
	fileCount := 0
	for _, d := range dirs {
		for _, f := range d.Files {
			payloads.Write(f.Payload)
			fileCount++
		}
	}

	var toc bytes.Buffer
	for _, d := range dirs {
		chunk := uint16(DirRecordFixedLen + len(d.Name) + d.Pad)
		if d.ChunkOverride != 0 {
			chunk = d.ChunkOverride
		}
		binary.Write(&toc, le, uint16(len(d.Files)))
		binary.Write(&toc, le, chunk)
		binary.Write(&toc, le, uint16(len(d.Name)))
		toc.WriteString(d.Name)
		toc.Write(bytes.Repeat([]byte{0xdd}, d.Pad))
	}
	for _, d := range dirs {
		for _, f := range d.Files {
			size := uint32(len(f.Payload))
			if f.SizeOverride != 0 {
				size = f.SizeOverride
			}
			chunk := uint16(FileRecordFixedLen + len(f.Name) + f.Pad)
			if f.ChunkOverride != 0 {
				chunk = f.ChunkOverride
			}
			toc.Write(bytes.Repeat([]byte{0xa7}, 7))
			binary.Write(&toc, le, size)
			toc.Write(bytes.Repeat([]byte{0xc1}, 12))
			binary.Write(&toc, le, chunk)
			toc.Write(bytes.Repeat([]byte{0xe4}, 4))
			toc.WriteByte(byte(len(f.Name)))
			toc.WriteString(f.Name)
			toc.Write(bytes.Repeat([]byte{0xf0}, f.Pad))
		}
	}

	tocAddress := DataStart + payloads.Len()
	total := tocAddress + toc.Len()

	var hdr bytes.Buffer
	binary.Write(&hdr, le, Signature)
	hdr.Write(bytes.Repeat([]byte{0x11}, 8))
	binary.Write(&hdr, le, uint16(fileCount))
	hdr.Write(bytes.Repeat([]byte{0x22}, 4))
	binary.Write(&hdr, le, uint32(total))
	hdr.Write(bytes.Repeat([]byte{0x33}, 19))
	binary.Write(&hdr, le, uint32(tocAddress))
	hdr.Write(bytes.Repeat([]byte{0x44}, 4))
	binary.Write(&hdr, le, uint16(len(dirs)))
	require.Equal(tb, HeaderLen, hdr.Len())

	out := make([]byte, 0, total)
	out = append(out, hdr.Bytes()...)
	out = append(out, make([]byte, DataStart-HeaderLen)...)
	out = append(out, payloads.Bytes()...)
	out = append(out, toc.Bytes()...)
	require.Len(tb, out, total)
	return TestArchive{Data: out, TOCAddress: tocAddress}
}
