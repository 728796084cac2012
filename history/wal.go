package history

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"kanalex/model"
)

// WAL is the append-only log of history updates kept next to the
// checkpoint. Each record() call becomes one frame:
//
//	u32 CRC32 (IEEE, of the payload) | u32 payload length | payload
//
// The payload encodes the segment list and the timestamp the record was
// applied with. Replay stops at the first frame whose length or CRC
// doesn't check out — a torn tail after a crash is expected, not a
// fault. The log is truncated to zero after a successful checkpoint.
type WAL struct {
	path  string
	count int
}

// NewWAL returns the WAL sibling of a checkpoint path.
func NewWAL(checkpointPath string) *WAL {
	return &WAL{path: checkpointPath + ".wal"}
}

// Path returns the WAL file path.
func (w *WAL) Path() string { return w.path }

// EntryCount is the number of frames appended or replayed through this
// handle.
func (w *WAL) EntryCount() int { return w.count }

// Append writes one framed record. The file is opened append-only per
// call so a crash can only tear the final frame.
func (w *WAL) Append(segments []model.ConvertedSegment, now uint64) error {
	payload := encodePayload(segments, now)
	frame := make([]byte, 0, 8+len(payload))
	frame = binary.LittleEndian.AppendUint32(frame, crc32.ChecksumIEEE(payload))
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("history wal %s: %w", w.path, err)
	}
	defer f.Close()
	if _, err := f.Write(frame); err != nil {
		return fmt.Errorf("history wal %s: %w", w.path, err)
	}
	w.count++
	return nil
}

// Replay applies every intact frame to the history via RecordAt, using
// each frame's own timestamp. Returns the number of frames applied.
// Tail corruption (short frame, CRC mismatch) ends replay silently;
// frames already applied stay applied.
func (w *WAL) Replay(h *UserHistory) (int, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("history wal %s: %w", w.path, err)
	}

	applied := 0
	off := 0
	for {
		if off+8 > len(data) {
			break
		}
		sum := binary.LittleEndian.Uint32(data[off:])
		length := binary.LittleEndian.Uint32(data[off+4:])
		if off+8+int(length) > len(data) {
			break
		}
		payload := data[off+8 : off+8+int(length)]
		if crc32.ChecksumIEEE(payload) != sum {
			break
		}
		segments, now, err := decodePayload(payload)
		if err != nil {
			break
		}
		h.RecordAt(segments, now)
		applied++
		off += 8 + int(length)
	}
	w.count = applied
	return applied, nil
}

// Truncate empties the log, typically right after a checkpoint save.
func (w *WAL) Truncate() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("history wal %s: %w", w.path, err)
	}
	w.count = 0
	return f.Close()
}

func encodePayload(segments []model.ConvertedSegment, now uint64) []byte {
	buf := make([]byte, 0, 16)
	buf = binary.LittleEndian.AppendUint64(buf, now)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(segments)))
	for _, seg := range segments {
		buf = appendString(buf, seg.Reading)
		buf = appendString(buf, seg.Surface)
	}
	return buf
}

func decodePayload(payload []byte) ([]model.ConvertedSegment, uint64, error) {
	if len(payload) < 10 {
		return nil, 0, io.ErrUnexpectedEOF
	}
	now := binary.LittleEndian.Uint64(payload)
	count := binary.LittleEndian.Uint16(payload[8:])
	r := &byteReader{data: payload, off: 10}
	segments := make([]model.ConvertedSegment, 0, count)
	for i := uint16(0); i < count; i++ {
		reading, err := r.str()
		if err != nil {
			return nil, 0, err
		}
		surface, err := r.str()
		if err != nil {
			return nil, 0, err
		}
		segments = append(segments, model.ConvertedSegment{Reading: reading, Surface: surface})
	}
	return segments, now, nil
}
