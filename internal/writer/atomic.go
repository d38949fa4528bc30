package writer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const tempFilePrefix = ".caption-notes-"

// writeFileAtomic writes data to a temp file in the target directory and renames it into place.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := stage(filepath.Dir(filename), data, perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", filename, err)
	}
	return nil
}

// stage writes data to a synced temp file in dir and returns its path.
func stage(dir string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return name, nil
}

type stagedFile struct {
	tmp   string
	final string
}

// commitPair renames both staged files into place in order. An existing first file is moved
// aside and restored when the second rename fails, so a previous pair survives a failed
// overwrite. Cancellation before the renames discards the staged files.
func commitPair(ctx context.Context, first, second stagedFile) error {
	defer os.Remove(first.tmp)
	defer os.Remove(second.tmp)

	if err := ctx.Err(); err != nil {
		return err
	}

	backup := filepath.Join(filepath.Dir(first.final), tempFilePrefix+"prev-"+filepath.Base(first.final))
	hadPrevious := true
	if err := os.Rename(first.final, backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("back up %s: %w", filepath.Base(first.final), err)
		}
		hadPrevious = false
	}
	restore := func() error {
		if !hadPrevious {
			return nil
		}
		return os.Rename(backup, first.final)
	}

	if err := os.Rename(first.tmp, first.final); err != nil {
		if rerr := restore(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return fmt.Errorf("commit %s: %w", filepath.Base(first.final), err)
	}
	if err := os.Rename(second.tmp, second.final); err != nil {
		if rmErr := os.Remove(first.final); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		if rerr := restore(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return fmt.Errorf("commit %s: %w", filepath.Base(second.final), err)
	}
	if hadPrevious {
		os.Remove(backup)
	}
	return nil
}
