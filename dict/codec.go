package dict

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"kanalex/model"
)

// Compiled dictionary format: "LXDX" magic, a version byte, then the
// encoded reading → entries table. All integers are little-endian.
const (
	dictMagic      = "LXDX"
	dictVersion    = 1
	dictHeaderSize = 5
)

// Bytes serializes the dictionary to the LXDX format.
func (d *TrieDictionary) Bytes() []byte {
	readings, entries := d.Stats()
	buf := make([]byte, 0, dictHeaderSize+readings*16+entries*24)
	buf = append(buf, dictMagic...)
	buf = append(buf, dictVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(readings))
	d.m.Scan(func(reading string, es []model.DictEntry) bool {
		buf = appendString(buf, reading)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(es)))
		for _, e := range es {
			buf = appendString(buf, e.Surface)
			buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Cost))
			buf = binary.LittleEndian.AppendUint16(buf, e.LeftID)
			buf = binary.LittleEndian.AppendUint16(buf, e.RightID)
		}
		return true
	})
	return buf
}

// FromBytes parses an LXDX payload.
func FromBytes(data []byte) (*TrieDictionary, error) {
	if len(data) < dictHeaderSize {
		return nil, fmt.Errorf("dictionary: %w", ErrInvalidHeader)
	}
	if string(data[:4]) != dictMagic {
		return nil, fmt.Errorf("dictionary: %w (expected %s)", ErrInvalidMagic, dictMagic)
	}
	if data[4] != dictVersion {
		return nil, fmt.Errorf("dictionary: %w: %d", ErrUnsupportedVersion, data[4])
	}
	r := reader{data: data, off: dictHeaderSize}
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	d := &TrieDictionary{m: new(btreeMap)}
	for i := uint32(0); i < count; i++ {
		reading, err := r.str()
		if err != nil {
			return nil, err
		}
		entryCount, err := r.uint16()
		if err != nil {
			return nil, err
		}
		entries := make([]model.DictEntry, 0, entryCount)
		for j := uint16(0); j < entryCount; j++ {
			surface, err := r.str()
			if err != nil {
				return nil, err
			}
			cost, err := r.uint16()
			if err != nil {
				return nil, err
			}
			left, err := r.uint16()
			if err != nil {
				return nil, err
			}
			right, err := r.uint16()
			if err != nil {
				return nil, err
			}
			entries = append(entries, model.DictEntry{
				Surface: surface,
				Cost:    int16(cost),
				LeftID:  left,
				RightID: right,
			})
		}
		d.m.Set(reading, entries)
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("dictionary: %w: %d trailing bytes", ErrParse, len(data)-r.off)
	}
	return d, nil
}

// Open loads a compiled dictionary file.
func Open(path string) (*TrieDictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	d, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	readings, entries := d.Stats()
	log.Info().Str("path", path).Int("readings", readings).Int("entries", entries).
		Msg("dictionary loaded")
	return d, nil
}

// Save writes the compiled dictionary to a file.
func (d *TrieDictionary) Save(path string) error {
	if err := os.WriteFile(path, d.Bytes(), 0o644); err != nil {
		return fmt.Errorf("dictionary %s: %w", path, err)
	}
	return nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("dictionary: %w: truncated at offset %d", ErrParse, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) str() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
