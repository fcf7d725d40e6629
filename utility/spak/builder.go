// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package spak

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4"
)

// Builder accumulates kernels in memory and writes a finished pack in
// one pass. Safe for concurrent Add calls.
type Builder struct {
	mutex   sync.Mutex
	entries []IndexEntry
	data    bytes.Buffer
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add compresses code and appends it under the given name. Names must
// be unique within a pack.
func (b *Builder) Add(name string, code []byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, entry := range b.entries {
		if entry.Name == name {
			return fmt.Errorf("spak: duplicate entry %s", name)
		}
	}

	offset := int64(b.data.Len())
	writer := lz4.NewWriter(&b.data)
	if _, err := writer.Write(code); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	b.entries = append(b.entries, IndexEntry{
		Name:           name,
		Offset:         offset,
		CompressedSize: int64(b.data.Len()) - offset,
		Size:           int64(len(code)),
	})
	return nil
}

// WriteTo writes the complete pack: magic, header length, gob header,
// data section.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var headerBytes bytes.Buffer
	if err := gob.NewEncoder(&headerBytes).Encode(Header{Entries: b.entries}); err != nil {
		return 0, err
	}

	var written int64
	num, err := w.Write([]byte(Magic))
	written += int64(num)
	if err != nil {
		return written, err
	}

	sizeBytes := make([]byte, headerSizeLength)
	binary.BigEndian.PutUint64(sizeBytes, uint64(headerBytes.Len()))
	num, err = w.Write(sizeBytes)
	written += int64(num)
	if err != nil {
		return written, err
	}

	num64, err := io.Copy(w, &headerBytes)
	written += num64
	if err != nil {
		return written, err
	}

	num64, err = io.Copy(w, bytes.NewReader(b.data.Bytes()))
	written += num64
	return written, err
}
