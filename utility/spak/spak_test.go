// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package spak_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/gpu/utility/spak"
)

func buildPack(c *qt.C, kernels map[string][]byte) []byte {
	builder := spak.NewBuilder()
	for name, code := range kernels {
		c.Assert(builder.Add(name, code), qt.IsNil)
	}
	var out bytes.Buffer
	_, err := builder.WriteTo(&out)
	c.Assert(err, qt.IsNil)
	return out.Bytes()
}

func TestRoundTrip(t *testing.T) {
	c := qt.New(t)

	kernels := map[string][]byte{
		"fill.comp.spv":   bytes.Repeat([]byte{0x03, 0x02, 0x23, 0x07}, 64),
		"reduce.comp.spv": bytes.Repeat([]byte{0xAA, 0x55}, 512),
	}
	pack := buildPack(c, kernels)

	archive, err := spak.Open(bytes.NewReader(pack))
	c.Assert(err, qt.IsNil)
	c.Assert(len(archive.Names()), qt.Equals, 2)

	for name, code := range kernels {
		data, err := archive.ReadAll(name)
		c.Assert(err, qt.IsNil)
		c.Assert(data, qt.DeepEquals, code)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	c := qt.New(t)

	_, err := spak.Open(bytes.NewReader([]byte("KAR\x00 definitely not a pack")))
	c.Assert(errors.Is(err, spak.ErrFormat), qt.Equals, true)
}

func TestOpenRejectsOversizedHeader(t *testing.T) {
	c := qt.New(t)

	pack := []byte(spak.Magic)
	size := make([]byte, 8)
	binary.BigEndian.PutUint64(size, 1<<40)
	pack = append(pack, size...)

	_, err := spak.Open(bytes.NewReader(pack))
	c.Assert(errors.Is(err, spak.ErrFormat), qt.Equals, true)
}

func TestReadMissingEntry(t *testing.T) {
	c := qt.New(t)

	pack := buildPack(c, map[string][]byte{"fill.comp.spv": {1, 2, 3, 4}})
	archive, err := spak.Open(bytes.NewReader(pack))
	c.Assert(err, qt.IsNil)

	_, err = archive.ReadAll("missing.comp.spv")
	c.Assert(errors.Is(err, spak.ErrNotFound), qt.Equals, true)
}

func TestDuplicateEntryRejected(t *testing.T) {
	c := qt.New(t)

	builder := spak.NewBuilder()
	c.Assert(builder.Add("fill.comp.spv", []byte{1}), qt.IsNil)
	c.Assert(builder.Add("fill.comp.spv", []byte{2}), qt.Not(qt.IsNil))
}

func TestEmptyPack(t *testing.T) {
	c := qt.New(t)

	pack := buildPack(c, nil)
	archive, err := spak.Open(bytes.NewReader(pack))
	c.Assert(err, qt.IsNil)
	c.Assert(len(archive.Names()), qt.Equals, 0)
}
