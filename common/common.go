// Copyright (c) 2017-2020 The Elastos Foundation
// Use of this source code is governed by an MIT
// license that can be found in the LICENSE file.
//

// Package common holds the wire-format primitives shared by every package
// in this module: the 32-byte hash type and the little-endian, 7-bit
// continuation varint codec CryptoNote-family chains use on the wire.
package common

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

// COIN is the atomic-unit scale for every asset tracked by this module.
const COIN = uint64(1_000_000_000_000)

// Hash is a 32-byte digest, used for prefix hashes, tx hashes and block IDs.
type Hash [32]byte

var EmptyHash = Hash{}

func (h Hash) IsEqual(o Hash) bool {
	return h == o
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	b := make([]byte, len(h))
	copy(b, h[:])
	return b
}

func BytesToHexString(data []byte) string {
	return hex.EncodeToString(data)
}

func HexStringToBytes(value string) ([]byte, error) {
	return hex.DecodeString(value)
}

// WriteVarint writes x using the standard little-endian 7-bit continuation
// form: each byte carries 7 value bits plus a high continuation bit, least
// significant group first.
func WriteVarint(w io.Writer, x uint64) error {
	var buf [10]byte
	n := 0
	for x >= 0x80 {
		buf[n] = byte(x) | 0x80
		x >>= 7
		n++
	}
	buf[n] = byte(x)
	n++
	_, err := w.Write(buf[:n])
	return err
}

// ReadVarint reads a varint written by WriteVarint.
func ReadVarint(r io.Reader) (uint64, error) {
	var result uint64
	var shift uint
	var b [1]byte
	for i := 0; i < 10; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, errors.Wrap(err, "read varint")
		}
		result |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, errors.New("varint too long")
}

func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// WriteVarBytes writes the varint-prefixed length of b followed by b.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarint(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarBytes reads a varint-prefixed byte slice, refusing to allocate more
// than maxSize bytes for a single field.
func ReadVarBytes(r io.Reader, maxSize uint64, field string) ([]byte, error) {
	n, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}
	if n > maxSize {
		return nil, errors.Errorf("%s: length %d exceeds max %d", field, n, maxSize)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func WriteHash(w io.Writer, h Hash) error {
	_, err := w.Write(h[:])
	return err
}

func ReadHash(r io.Reader) (Hash, error) {
	var h Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, err
	}
	return h, nil
}
