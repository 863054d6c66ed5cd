package backup

import (
	"bytes"
	"fmt"
	"io"
	"listkeeper/internal/serializer"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
)

const (
	archiveExt = ".zip"
	tmpPrefix  = ".tmp_"
	stampFmt   = "20060102_150405"
	maxMember  = 64 << 20
)

// idPattern splits "{identity}_{YYYYMMDD_HHMMSS}[_mmm]". The millisecond suffix is optional so
// archives named at second resolution still list.
var idPattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)_(\d{8}_\d{6})(?:_(\d{3}))?$`)

// FormatID builds the archive id for an identity at a millisecond-resolution stamp.
func FormatID(identity string, stamp time.Time) string {
	stamp = stamp.UTC()
	return fmt.Sprintf("%s_%s_%03d", identity, stamp.Format(stampFmt), stamp.Nanosecond()/int(time.Millisecond))
}

// ParseID extracts the identity and creation stamp from an archive id.
func ParseID(id string) (string, time.Time, bool) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return "", time.Time{}, false
	}
	stamp, err := time.ParseInLocation(stampFmt, m[2], time.UTC)
	if err != nil {
		return "", time.Time{}, false
	}
	if m[3] != "" {
		ms, _ := strconv.Atoi(m[3])
		stamp = stamp.Add(time.Duration(ms) * time.Millisecond)
	}
	return m[1], stamp, true
}

// checkMember applies the content rules every member must satisfy.
func checkMember(name string, data []byte) error {
	if len(data) == 0 {
		return &ValidationError{Member: name, Reason: "empty"}
	}
	if !serializer.IsJSONMember(name) {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &ValidationError{Member: name, Reason: "empty"}
	}
	if !json.Valid(trimmed) {
		return &ValidationError{Member: name, Reason: "invalid JSON"}
	}
	return nil
}

func validateStaging(dir string) error {
	for _, name := range serializer.RequiredMembers {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				return &ValidationError{Member: name, Reason: "missing"}
			}
			return err
		}
		if err := checkMember(name, data); err != nil {
			return err
		}
	}
	return nil
}

// writeArchive packs every required member of the staging dir into a deflated zip at path.
func writeArchive(path, stagingDir string, modified time.Time) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(file)
	for _, name := range serializer.RequiredMembers {
		if err := addMember(zw, filepath.Join(stagingDir, name), name, modified); err != nil {
			zw.Close()
			file.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func addMember(zw *zip.Writer, src, name string, modified time.Time) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// readMembers loads the named members of an archive. Missing members are absent from the result.
func readMembers(path string, names ...string) (map[string][]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	out := make(map[string][]byte, len(names))
	for _, f := range zr.File {
		if _, ok := wanted[f.Name]; !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxMember))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		out[f.Name] = data
	}
	return out, nil
}

// validateArchive re-reads a written archive and checks every required member.
func validateArchive(path string) error {
	members, err := readMembers(path, serializer.RequiredMembers...)
	if err != nil {
		return &ValidationError{Member: filepath.Base(path), Reason: err.Error()}
	}
	for _, name := range serializer.RequiredMembers {
		data, ok := members[name]
		if !ok {
			return &ValidationError{Member: name, Reason: "missing"}
		}
		if err := checkMember(name, data); err != nil {
			return err
		}
	}
	return nil
}
