package statestore

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/hupe1980/quantgo/codec"
	"github.com/hupe1980/quantgo/record"
)

// Snapshot wire layout (little endian):
//
//	magic      [4]byte  "QGS1"
//	codecLen   uint16
//	codec      [codecLen]byte
//	compLen    uint16
//	comp       [compLen]byte
//	payloadLen uint32
//	payload    [payloadLen]byte   (compressed encoded record)
//	crc        uint32             (CRC-32/Castagnoli over payload)
var snapshotMagic = [4]byte{'Q', 'G', 'S', '1'}

var crcTable = crc32.MakeTable(crc32.Castagnoli)

const maxSnapshotName = 255

// EncodeSnapshot serializes a record into self-describing snapshot bytes
// using the given codec and compression.
func EncodeSnapshot(rec *record.Record, c codec.Codec, comp Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	if comp == nil {
		comp = None{}
	}

	encoded, err := rec.Encode(c)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	payload, err := comp.Compress(encoded)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	codecName := c.Name()
	compName := comp.Name()
	if len(codecName) > maxSnapshotName || len(compName) > maxSnapshotName {
		return nil, fmt.Errorf("snapshot header name too long")
	}

	buf := make([]byte, 0, 4+2+len(codecName)+2+len(compName)+4+len(payload)+4)
	buf = append(buf, snapshotMagic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(codecName))) //nolint:gosec
	buf = append(buf, codecName...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(compName))) //nolint:gosec
	buf = append(buf, compName...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload))) //nolint:gosec
	buf = append(buf, payload...)
	buf = binary.LittleEndian.AppendUint32(buf, crc32.Checksum(payload, crcTable))

	return buf, nil
}

// DecodeSnapshot parses snapshot bytes, resolving codec and compression from
// the header, and returns the decoded record.
func DecodeSnapshot(data []byte) (*record.Record, error) {
	if len(data) < 4 || [4]byte(data[:4]) != snapshotMagic {
		return nil, fmt.Errorf("not a snapshot: bad magic")
	}
	off := 4

	codecName, off, err := readName(data, off)
	if err != nil {
		return nil, err
	}

	compName, off, err := readName(data, off)
	if err != nil {
		return nil, err
	}

	if len(data) < off+4 {
		return nil, fmt.Errorf("snapshot truncated: missing payload length")
	}
	payloadLen := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4

	if len(data) < off+payloadLen+4 {
		return nil, fmt.Errorf("snapshot truncated: payload")
	}
	payload := data[off : off+payloadLen]
	off += payloadLen

	if got, want := crc32.Checksum(payload, crcTable), binary.LittleEndian.Uint32(data[off:]); got != want {
		return nil, fmt.Errorf("snapshot corrupt: crc mismatch (got %08x, want %08x)", got, want)
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", codecName)
	}

	comp, ok := CompressionByName(compName)
	if !ok {
		return nil, fmt.Errorf("unknown compression %q", compName)
	}

	encoded, err := comp.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}

	rec, err := record.Decode(encoded, c)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	return rec, nil
}

func readName(data []byte, off int) (string, int, error) {
	if len(data) < off+2 {
		return "", 0, fmt.Errorf("snapshot truncated: missing header name")
	}
	n := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	if len(data) < off+n {
		return "", 0, fmt.Errorf("snapshot truncated: header name")
	}
	return string(data[off : off+n]), off + n, nil
}
