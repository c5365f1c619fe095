package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pawsona/pawsona/internal/models"
)

// Flat-file bundle layout, all little-endian:
// magic (4 bytes), version (uint16), dim (uint32), count (uint32), then per
// document five length-prefixed strings (id, type_code, category, title,
// content) followed by dim raw float32s.
const (
	bundleMagic   = "PWSV"
	bundleVersion = 1

	maxBundleDim  = 1 << 16
	maxBundleDocs = 1 << 24
)

func encodeBundle(dim int, docs []models.Document) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteString(bundleMagic)

	var scratch [4]byte
	binary.LittleEndian.PutUint16(scratch[:2], bundleVersion)
	buf.Write(scratch[:2])
	binary.LittleEndian.PutUint32(scratch[:], uint32(dim))
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(docs)))
	buf.Write(scratch[:])

	for _, d := range docs {
		if len(d.Embedding) != dim {
			return nil, fmt.Errorf("document %s has embedding of dimension %d, want %d", d.ID, len(d.Embedding), dim)
		}
		writeString(buf, d.ID)
		writeString(buf, d.TypeCode)
		writeString(buf, d.Category)
		writeString(buf, d.Title)
		writeString(buf, d.Content)
		buf.Write(encodeVector(d.Embedding))
	}
	return buf.Bytes(), nil
}

func decodeBundle(data []byte) (int, []models.Document, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(bundleMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != bundleMagic {
		return 0, nil, fmt.Errorf("bad magic %q", magic)
	}

	var header [4]byte
	if _, err := io.ReadFull(r, header[:2]); err != nil {
		return 0, nil, fmt.Errorf("reading version: %w", err)
	}
	if v := binary.LittleEndian.Uint16(header[:2]); v != bundleVersion {
		return 0, nil, fmt.Errorf("unsupported bundle version %d", v)
	}

	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("reading dimension: %w", err)
	}
	dim := int(binary.LittleEndian.Uint32(header[:]))
	if dim < 1 || dim > maxBundleDim {
		return 0, nil, fmt.Errorf("implausible dimension %d", dim)
	}

	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("reading count: %w", err)
	}
	count := int(binary.LittleEndian.Uint32(header[:]))
	if count > maxBundleDocs {
		return 0, nil, fmt.Errorf("implausible document count %d", count)
	}

	docs := make([]models.Document, 0, count)
	vecBytes := make([]byte, 4*dim)
	for i := 0; i < count; i++ {
		var d models.Document
		var err error
		if d.ID, err = readString(r); err != nil {
			return 0, nil, fmt.Errorf("document %d id: %w", i, err)
		}
		if d.TypeCode, err = readString(r); err != nil {
			return 0, nil, fmt.Errorf("document %d type_code: %w", i, err)
		}
		if d.Category, err = readString(r); err != nil {
			return 0, nil, fmt.Errorf("document %d category: %w", i, err)
		}
		if d.Title, err = readString(r); err != nil {
			return 0, nil, fmt.Errorf("document %d title: %w", i, err)
		}
		if d.Content, err = readString(r); err != nil {
			return 0, nil, fmt.Errorf("document %d content: %w", i, err)
		}
		if _, err = io.ReadFull(r, vecBytes); err != nil {
			return 0, nil, fmt.Errorf("document %d embedding: %w", i, err)
		}
		if d.Embedding, err = decodeVector(vecBytes); err != nil {
			return 0, nil, fmt.Errorf("document %d embedding: %w", i, err)
		}
		docs = append(docs, d)
	}

	if r.Len() != 0 {
		return 0, nil, fmt.Errorf("%d trailing bytes after %d documents", r.Len(), count)
	}
	return dim, docs, nil
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func writeString(buf *bytes.Buffer, s string) {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	buf.Write(l[:])
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var l [4]byte
	if _, err := io.ReadFull(r, l[:]); err != nil {
		return "", err
	}
	n := int(binary.LittleEndian.Uint32(l[:]))
	if n > r.Len() {
		return "", fmt.Errorf("string length %d exceeds remaining %d bytes", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
