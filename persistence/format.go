package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// magicNumber identifies annidx artifacts (ASCII: "ANX1").
	magicNumber = 0x414e5831
	// formatVersion is the current artifact format version (v1.0.0).
	formatVersion = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported format version")
	ErrTruncated      = errors.New("truncated artifact")
)

// fileHeader is the fixed 24-byte header at the start of every artifact.
// The compressed gob payload follows immediately after.
type fileHeader struct {
	Magic       uint32
	Version     uint32
	Kind        uint8 // index.Kind of the snapshot
	Compression uint8 // Compression of the payload
	Trained     uint8
	Padding     [1]byte
	Dimension   uint32
	Count       uint64
}

const headerSize = 24

func encodeArtifact(hdr fileHeader, payload []byte) ([]byte, error) {
	hdr.Magic = magicNumber
	hdr.Version = formatVersion

	compressed, err := compress(Compression(hdr.Compression), payload)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(compressed)))
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	buf.Write(compressed)

	return buf.Bytes(), nil
}

func decodeArtifact(data []byte) (fileHeader, []byte, error) {
	var hdr fileHeader

	if len(data) < headerSize {
		return hdr, nil, ErrTruncated
	}
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &hdr); err != nil {
		return hdr, nil, err
	}
	if hdr.Magic != magicNumber {
		return hdr, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != formatVersion {
		return hdr, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}

	payload, err := decompress(Compression(hdr.Compression), data[headerSize:])
	if err != nil {
		return hdr, nil, err
	}

	return hdr, payload, nil
}
