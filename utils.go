package yolods

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// filesByExtInDir returns all regular files with file extension ext found directly in directory
// dirPath, sorted by name. All files with some extension are returned if ext is empty, which
// matches the "*.*" glob.
func filesByExtInDir(dirPath, ext string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %q", dirPath)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		// Must be a regular file or a symlink and have the requested extension/suffix.
		if !e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}
		if ext == "" && !strings.Contains(name, ".") {
			continue
		}
		if ext != "" && !strings.HasSuffix(name, ext) {
			continue
		}
		files = append(files, filepath.Join(dirPath, name))
	}
	sort.Strings(files)

	return files, nil
}

// stem returns the base name of path without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readLines returns a slice of lines read from the file at path, without line terminators. Lines
// may be of any length.
func readLines(path string) (lines []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	r := bufio.NewReader(file)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %q as lines", path)
		}
	}

	return lines, nil
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// copyFile copies src to dst, keeping the permission bits and modification time of src.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %q to %q", src, dst)
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// unzip extracts the archive at zipPath into dst. Entries that would escape dst are rejected.
func unzip(zipPath, dst string) (err error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrapf(err, "cannot open archive %q", zipPath)
	}
	defer closeWithErrCheck(r, &err)

	clean := filepath.Clean(dst)
	root := clean + string(os.PathSeparator)
	for _, f := range r.File {
		path := filepath.Join(dst, f.Name)
		if path == clean {
			// "./" style entries name dst itself.
			continue
		}
		if !strings.HasPrefix(path, root) {
			return errors.Errorf("illegal file path %q in %q", f.Name, zipPath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := extractZipFile(f, path); err != nil {
			return err
		}
	}

	log.Debugf("Extracted %d entries from %q", len(r.File), zipPath)
	return nil
}

// extractZipFile writes the contents of the archive entry f to path.
func extractZipFile(f *zip.File, path string) (err error) {
	src, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "cannot read %q from archive", f.Name)
	}
	defer closeWithErrCheck(src, &err)

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(dst, &err)

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "failed to extract %q", f.Name)
	}
	return nil
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
