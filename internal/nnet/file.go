package nnet

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/nnetio/internal/kio"
)

// LoadFile reads a model from path. The file is mapped read-only when mmap is
// available and streamed through a buffered reader otherwise.
func LoadFile(path string, opts ...Option) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &kio.FormatError{Kind: kio.KindIO, Op: "open", Token: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, &kio.FormatError{Kind: kio.KindIO, Op: "stat", Token: path, Err: err}
	}
	size := st.Size()
	if size > 0 && size <= int64(int(^uint(0)>>1)) {
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			m, loadErr := Load(bytes.NewReader(data), opts...)
			if uerr := unix.Munmap(data); uerr != nil && loadErr == nil {
				loadErr = fmt.Errorf("munmap %s: %w", path, uerr)
			}
			if loadErr != nil {
				return nil, fmt.Errorf("load %s: %w", path, loadErr)
			}
			return m, nil
		}
	}

	m, err := Load(bufio.NewReader(f), opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// WriteFile writes m to path, replacing any existing file.
func WriteFile(path string, m *Model, binary bool) error {
	f, err := os.Create(path)
	if err != nil {
		return &kio.FormatError{Kind: kio.KindIO, Op: "create", Token: path, Err: err}
	}
	if err := Write(f, m, binary); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &kio.FormatError{Kind: kio.KindIO, Op: "close", Token: path, Err: err}
	}
	return nil
}
