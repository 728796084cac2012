package dict

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Morpheme role tags carried by V3 connection matrices.
const (
	RoleContent uint8 = 0
	RoleFW      uint8 = 1
	RoleSuffix  uint8 = 2
	RolePrefix  uint8 = 3
)

// ConnectionMatrix is a square (left_id, right_id) → transition cost
// table with optional function-word range and per-id role metadata.
//
// Cells are kept as raw little-endian bytes so the matrix can be served
// directly from a memory-mapped file.
type ConnectionMatrix struct {
	numIDs uint16
	fwMin  uint16
	fwMax  uint16
	roles  []byte
	cells  []byte
	mapped *mapping
}

// Cost returns the transition cost between two morpheme ids.
// Out-of-range indices return 0.
func (m *ConnectionMatrix) Cost(leftID, rightID uint16) int16 {
	idx := int(leftID)*int(m.numIDs) + int(rightID)
	if leftID >= m.numIDs || rightID >= m.numIDs || idx*2+2 > len(m.cells) {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(m.cells[idx*2:]))
}

// NumIDs returns the number of morpheme ids covered by the matrix.
func (m *ConnectionMatrix) NumIDs() uint16 { return m.numIDs }

// FWRange returns the inclusive function-word id range. fwMin == 0 means
// the matrix carries no function-word information.
func (m *ConnectionMatrix) FWRange() (uint16, uint16) { return m.fwMin, m.fwMax }

// IsFunctionWord reports whether the id falls in the function-word range.
func (m *ConnectionMatrix) IsFunctionWord(id uint16) bool {
	if m.fwMin == 0 {
		return false
	}
	return id >= m.fwMin && id <= m.fwMax
}

// Role returns the morpheme role tag for an id; ids past the roles vector
// are content words.
func (m *ConnectionMatrix) Role(id uint16) uint8 {
	if int(id) >= len(m.roles) {
		return RoleContent
	}
	return m.roles[id]
}

// Close releases the memory mapping, if any. Safe on owned matrices.
func (m *ConnectionMatrix) Close() error {
	if m.mapped == nil {
		return nil
	}
	err := m.mapped.close()
	m.mapped = nil
	m.cells = nil
	return err
}

func newOwned(numIDs, fwMin, fwMax uint16, roles []byte, costs []int16) *ConnectionMatrix {
	cells := make([]byte, len(costs)*2)
	for i, c := range costs {
		binary.LittleEndian.PutUint16(cells[i*2:], uint16(c))
	}
	return &ConnectionMatrix{numIDs: numIDs, fwMin: fwMin, fwMax: fwMax, roles: roles, cells: cells}
}

// FromText parses a text connection matrix.
//
// Two formats are accepted (auto-detected from the first data line):
//   - cost-per-line: header "N" or "N N", then N² costs row-major
//   - triplet: header "N N", then "right_id left_id cost" lines,
//     missing cells defaulting to 0
func FromText(text string) (*ConnectionMatrix, error) {
	lines := strings.Split(text, "\n")
	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("connection matrix: %w: empty file", ErrParse)
	}
	header := strings.Fields(lines[headerIdx])
	var numIDs uint16
	switch len(header) {
	case 1:
		n, err := strconv.ParseUint(header[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("connection matrix: %w: invalid num_ids: %v", ErrParse, err)
		}
		numIDs = uint16(n)
	case 2:
		nl, err := strconv.ParseUint(header[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("connection matrix: %w: invalid num_left: %v", ErrParse, err)
		}
		nr, err := strconv.ParseUint(header[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("connection matrix: %w: invalid num_right: %v", ErrParse, err)
		}
		if nl != nr {
			return nil, fmt.Errorf("connection matrix: %w: num_left (%d) != num_right (%d)", ErrParse, nl, nr)
		}
		numIDs = uint16(nl)
	default:
		return nil, fmt.Errorf("connection matrix: %w: expected 1 or 2 header values, got %d", ErrParse, len(header))
	}

	expected := int(numIDs) * int(numIDs)
	body := lines[headerIdx+1:]

	// Peek the first non-empty data line to detect the triplet format.
	isTriplet := false
	for _, line := range body {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		isTriplet = len(fields) == 3
		break
	}

	var costs []int16
	if isTriplet {
		costs = make([]int16, expected)
		for _, line := range body {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("connection matrix: %w: expected 3 fields, got %d", ErrParse, len(fields))
			}
			rightID, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("connection matrix: %w: right_id: %v", ErrParse, err)
			}
			leftID, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("connection matrix: %w: left_id: %v", ErrParse, err)
			}
			cost, err := strconv.ParseInt(fields[2], 10, 16)
			if err != nil {
				return nil, fmt.Errorf("connection matrix: %w: cost: %v", ErrParse, err)
			}
			idx := leftID*int(numIDs) + rightID
			if idx < 0 || idx >= expected {
				return nil, fmt.Errorf("connection matrix: %w: index out of bounds: (%d, %d)", ErrParse, rightID, leftID)
			}
			costs[idx] = int16(cost)
		}
	} else {
		costs = make([]int16, 0, expected)
		for _, line := range body {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if len(strings.Fields(line)) != 1 {
				return nil, fmt.Errorf("connection matrix: %w: expected 1 cost on line %q", ErrParse, line)
			}
			cost, err := strconv.ParseInt(line, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("connection matrix: %w: invalid cost %q: %v", ErrParse, line, err)
			}
			costs = append(costs, int16(cost))
		}
		if len(costs) != expected {
			return nil, fmt.Errorf("connection matrix: %w: expected %d costs, got %d", ErrParse, expected, len(costs))
		}
	}

	return newOwned(numIDs, 0, 0, nil, costs), nil
}

// FromTextWithMetadata parses a text matrix and attaches the
// function-word id range.
func FromTextWithMetadata(text string, fwMin, fwMax uint16) (*ConnectionMatrix, error) {
	m, err := FromText(text)
	if err != nil {
		return nil, err
	}
	m.fwMin = fwMin
	m.fwMax = fwMax
	return m, nil
}

// FromTextWithRoles parses a text matrix and attaches the function-word
// range plus a per-id role vector. The roles vector must not exceed
// num_ids.
func FromTextWithRoles(text string, fwMin, fwMax uint16, roles []byte) (*ConnectionMatrix, error) {
	m, err := FromText(text)
	if err != nil {
		return nil, err
	}
	if len(roles) > int(m.numIDs) {
		return nil, fmt.Errorf("connection matrix: %w: %d roles for %d ids", ErrInvalidHeader, len(roles), m.numIDs)
	}
	m.fwMin = fwMin
	m.fwMax = fwMax
	m.roles = roles
	return m, nil
}
