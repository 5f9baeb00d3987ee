// Package sink persists rendered lines to files.
package sink

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Append writes line plus a newline to the end of the file at path, creating
// the file and any missing parent directories. The file is closed before
// Append returns.
func Append(path, line string) (err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(abs), dirPerm); err != nil {
		return errors.Wrapf(err, "create directory for %s", abs)
	}

	f, err := os.OpenFile(abs, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return errors.Wrapf(err, "open %s", abs)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", abs)
		}
	}()

	if _, err := io.WriteString(f, line+"\n"); err != nil {
		return errors.Wrapf(err, "write %s", abs)
	}
	return nil
}

// CountLines returns the number of lines in the file at path. A final line
// without a trailing newline is counted. A missing file has zero lines.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var (
		buf   = make([]byte, 32*1024)
		count int
		last  byte = '\n'
	)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrapf(err, "read %s", path)
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}
