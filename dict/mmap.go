package dict

import (
	"os"
	"syscall"
)

// mapping is a read-only memory-mapped file. The compiled assets are
// opened once at process start and never modified while the IME runs.
type mapping struct {
	data []byte
}

func openMapping(path string) (*mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return &mapping{data: []byte{}}, nil
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mapping{data: data}, nil
}

func (m *mapping) close() error {
	if len(m.data) == 0 {
		return nil
	}
	data := m.data
	m.data = nil
	return syscall.Munmap(data)
}
