package source

import (
	"errors"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"xpug.it/packscore/internal/codec"
	"xpug.it/packscore/internal/record"
)

func openLocal(name string, format codec.Format) (*Input, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, record.NewFileNotFoundError(name, err)
		}
		return nil, err
	}
	defer f.Close()

	if format != codec.None {
		data, err := codec.ReadAll(format, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return &Input{Location: name, Format: format, data: data}, nil
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// zero-length files cannot be mapped
	if info.Size() == 0 {
		return &Input{Location: name, Format: format}, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", name, err)
	}
	return &Input{Location: name, Format: format, data: data, release: data.Unmap}, nil
}
