package dict

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Compiled connection matrix format: "LXCX" magic + version byte.
// V1: u16 num_ids, then num_ids² little-endian i16 cells (row-major,
// index = left·N + right). V2 adds u16 fw_min + u16 fw_max after num_ids.
// V3 adds num_ids role bytes between the V2 header and the cells.
const (
	connMagic    = "LXCX"
	v1HeaderSize = 4 + 1 + 2
	v2HeaderSize = v1HeaderSize + 4
)

type connHeader struct {
	numIDs  uint16
	fwMin   uint16
	fwMax   uint16
	roles   []byte
	bodyOff int
}

func parseConnHeader(data []byte) (connHeader, error) {
	var h connHeader
	if len(data) < v1HeaderSize {
		return h, fmt.Errorf("connection matrix: %w", ErrInvalidHeader)
	}
	if string(data[:4]) != connMagic {
		return h, fmt.Errorf("connection matrix: %w (expected %s)", ErrInvalidMagic, connMagic)
	}
	version := data[4]
	h.numIDs = binary.LittleEndian.Uint16(data[5:])
	switch version {
	case 1:
		h.bodyOff = v1HeaderSize
	case 2:
		if len(data) < v2HeaderSize {
			return h, fmt.Errorf("connection matrix: %w", ErrInvalidHeader)
		}
		h.fwMin = binary.LittleEndian.Uint16(data[7:])
		h.fwMax = binary.LittleEndian.Uint16(data[9:])
		h.bodyOff = v2HeaderSize
	case 3:
		if len(data) < v2HeaderSize {
			return h, fmt.Errorf("connection matrix: %w", ErrInvalidHeader)
		}
		h.fwMin = binary.LittleEndian.Uint16(data[7:])
		h.fwMax = binary.LittleEndian.Uint16(data[9:])
		rolesEnd := v2HeaderSize + int(h.numIDs)
		if len(data) < rolesEnd {
			return h, fmt.Errorf("connection matrix: %w", ErrInvalidHeader)
		}
		h.roles = data[v2HeaderSize:rolesEnd]
		h.bodyOff = rolesEnd
	default:
		return h, fmt.Errorf("connection matrix: %w: %d", ErrUnsupportedVersion, version)
	}
	expected := int(h.numIDs) * int(h.numIDs) * 2
	if len(data)-h.bodyOff != expected {
		return h, fmt.Errorf("connection matrix: %w: expected %d bytes of cost data, got %d",
			ErrParse, expected, len(data)-h.bodyOff)
	}
	return h, nil
}

// ConnFromBytes parses a compiled connection matrix into an owned
// representation.
func ConnFromBytes(data []byte) (*ConnectionMatrix, error) {
	h, err := parseConnHeader(data)
	if err != nil {
		return nil, err
	}
	cells := make([]byte, len(data)-h.bodyOff)
	copy(cells, data[h.bodyOff:])
	roles := make([]byte, len(h.roles))
	copy(roles, h.roles)
	return &ConnectionMatrix{numIDs: h.numIDs, fwMin: h.fwMin, fwMax: h.fwMax, roles: roles, cells: cells}, nil
}

// OpenConnection loads a compiled connection matrix with memory-mapped
// cells. The mapping stays valid for the lifetime of the matrix; call
// Close to release it.
func OpenConnection(path string) (*ConnectionMatrix, error) {
	mp, err := openMapping(path)
	if err != nil {
		return nil, fmt.Errorf("connection matrix %s: %w", path, err)
	}
	h, err := parseConnHeader(mp.data)
	if err != nil {
		mp.close()
		return nil, fmt.Errorf("connection matrix %s: %w", path, err)
	}
	m := &ConnectionMatrix{
		numIDs: h.numIDs,
		fwMin:  h.fwMin,
		fwMax:  h.fwMax,
		roles:  h.roles,
		cells:  mp.data[h.bodyOff:],
		mapped: mp,
	}
	log.Info().Str("path", path).Uint16("num_ids", h.numIDs).
		Uint16("fw_min", h.fwMin).Uint16("fw_max", h.fwMax).
		Msg("connection matrix loaded")
	return m, nil
}

// Bytes serializes the matrix: V3 when roles are present, V2 otherwise.
func (m *ConnectionMatrix) Bytes() []byte {
	hasRoles := len(m.roles) > 0
	version := byte(2)
	if hasRoles {
		version = 3
	}
	buf := make([]byte, 0, v2HeaderSize+len(m.roles)+len(m.cells))
	buf = append(buf, connMagic...)
	buf = append(buf, version)
	buf = binary.LittleEndian.AppendUint16(buf, m.numIDs)
	buf = binary.LittleEndian.AppendUint16(buf, m.fwMin)
	buf = binary.LittleEndian.AppendUint16(buf, m.fwMax)
	if hasRoles {
		buf = append(buf, m.roles...)
	}
	return append(buf, m.cells...)
}

// Save writes the compiled matrix to a file.
func (m *ConnectionMatrix) Save(path string) error {
	if err := os.WriteFile(path, m.Bytes(), 0o644); err != nil {
		return fmt.Errorf("connection matrix %s: %w", path, err)
	}
	return nil
}
