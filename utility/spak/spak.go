// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package spak reads and writes shader packs: flat archives of
// compiled SPIR-V kernels, individually lz4-compressed, with a
// gob-encoded index up front. Packs ship precompiled compute kernels
// with a binary and are opened straight from an io.ReaderAt, so an
// embedded pack never touches the filesystem.
package spak

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

const (
	// Magic identifies a shader pack file.
	Magic = "SPAK"

	magicLength      = 4
	headerSizeLength = 8

	// maxHeaderSize bounds the header allocation so a corrupt size
	// field cannot force one. Generous for any plausible index.
	maxHeaderSize = 16 << 20
)

// Errors returned while opening or reading packs.
var (
	ErrFormat   = errors.New("spak: not a shader pack")
	ErrNotFound = errors.New("spak: no such entry")
)

// IndexEntry locates one compressed kernel inside the data section.
type IndexEntry struct {
	Name           string
	Offset         int64
	CompressedSize int64
	Size           int64
}

// Header is the gob-encoded index written after the magic.
type Header struct {
	Entries []IndexEntry
}

// Archive provides read access to a pack. Reads of distinct entries
// are safe concurrently, io.ReaderAt permitting.
type Archive struct {
	reader    io.ReaderAt
	entries   map[string]IndexEntry
	names     []string
	dataStart int64
}

// Open parses the pack header from r and returns an Archive over it.
func Open(r io.ReaderAt) (*Archive, error) {
	magic := make([]byte, magicLength)
	if num, err := r.ReadAt(magic, 0); err != nil {
		return nil, err
	} else if num < magicLength || string(magic) != Magic {
		return nil, ErrFormat
	}

	sizeBytes := make([]byte, headerSizeLength)
	if num, err := r.ReadAt(sizeBytes, magicLength); err != nil {
		return nil, err
	} else if num < headerSizeLength {
		return nil, ErrFormat
	}
	headerSize := int64(binary.BigEndian.Uint64(sizeBytes))
	if headerSize <= 0 || headerSize > maxHeaderSize {
		return nil, ErrFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, magicLength+headerSizeLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFormat
	}

	var header Header
	if err := gob.NewDecoder(bytes.NewReader(headerBytes)).Decode(&header); err != nil {
		return nil, ErrFormat
	}

	archive := Archive{
		reader:    r,
		entries:   make(map[string]IndexEntry, len(header.Entries)),
		dataStart: magicLength + headerSizeLength + headerSize,
	}
	for _, entry := range header.Entries {
		archive.entries[entry.Name] = entry
		archive.names = append(archive.names, entry.Name)
	}
	return &archive, nil
}

// Names lists the entries in the order they were added.
func (a *Archive) Names() []string {
	return append([]string(nil), a.names...)
}

// ReadAll decompresses the named entry and returns its full contents.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	entry, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	compressed := make([]byte, entry.CompressedSize)
	if _, err := a.reader.ReadAt(compressed, a.dataStart+entry.Offset); err != nil {
		return nil, err
	}

	data := make([]byte, entry.Size)
	if _, err := io.ReadFull(lz4.NewReader(bytes.NewReader(compressed)), data); err != nil {
		return nil, fmt.Errorf("spak: decompress %s: %s", name, err)
	}
	return data, nil
}
