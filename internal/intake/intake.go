// Package intake decides which uploaded files enter the capture queue.
package intake

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

const (
	// MediaTypeGLB is the registered media type of binary glTF.
	MediaTypeGLB = "model/gltf-binary"

	// Extension is the file extension of binary glTF.
	Extension = ".glb"

	octetStream = "application/octet-stream"
)

var glbType = filetype.NewType("glb", MediaTypeGLB)

func init() {
	filetype.AddMatcher(glbType, func(buf []byte) bool {
		return len(buf) >= 8 &&
			buf[0] == 'g' && buf[1] == 'l' && buf[2] == 'T' && buf[3] == 'F' &&
			buf[4] == 2 && buf[5] == 0 && buf[6] == 0 && buf[7] == 0
	})
}

// File is an uploaded byte buffer identified by its original file name.
type File struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
}

// Accept reports whether a file is a binary glTF asset by declared media type or extension.
func Accept(f File) bool {
	mediaType := strings.ToLower(strings.TrimSpace(f.MediaType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if mediaType == MediaTypeGLB {
		return true
	}
	return strings.EqualFold(filepath.Ext(f.Name), Extension)
}

// TrimExtension strips a trailing .glb extension, matched case-insensitively.
func TrimExtension(name string) string {
	if len(name) >= len(Extension) && strings.EqualFold(name[len(name)-len(Extension):], Extension) {
		return name[:len(name)-len(Extension)]
	}
	return name
}

// Filter returns the accepted files in their original order. Rejected files are dropped silently.
func Filter(files []File) []File {
	accepted := make([]File, 0, len(files))
	for _, f := range files {
		if Accept(f) {
			accepted = append(accepted, f)
		}
	}
	return accepted
}

// DetectMediaType sniffs the content type of a buffer. Binary glTF is recognised from its
// container header; other content falls back to filetype's matchers and then to
// http.DetectContentType.
func DetectMediaType(data []byte) string {
	kind, err := filetype.Match(data)
	if err == nil && kind != types.Unknown {
		return kind.MIME.Value
	}
	if len(data) == 0 {
		return octetStream
	}
	return http.DetectContentType(data)
}

// ResolveMediaType keeps a specific declared media type and sniffs generic or missing ones.
func ResolveMediaType(declared string, data []byte) string {
	d := strings.ToLower(strings.TrimSpace(declared))
	if d == "" || strings.HasPrefix(d, octetStream) {
		return DetectMediaType(data)
	}
	return declared
}

// ReadPaths loads files from disk. Directories are expanded one level deep, sorted by name;
// only their accepted entries are read. Explicit file paths are always read.
func ReadPaths(paths ...string) ([]File, error) {
	var files []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			f, err := readFile(p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
				continue
			}
			f, err := readFile(filepath.Join(p, entry.Name()))
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

// ErrEmptyFile is returned by ReadFile for zero-length files.
var ErrEmptyFile = errors.New("file is empty")

// ReadFile loads a single file and resolves its media type from content.
func ReadFile(path string) (File, error) {
	f, err := readFile(path)
	if err != nil {
		return File{}, err
	}
	if len(f.Data) == 0 {
		return File{}, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	return f, nil
}

func readFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{
		Name:      filepath.Base(path),
		MediaType: DetectMediaType(data),
		Data:      data,
	}, nil
}
