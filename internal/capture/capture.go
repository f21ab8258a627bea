package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Frame is one acquired image plus where it came from.
type Frame struct {
	Image  image.Image
	Origin string
}

// Source yields successive frames on demand. Next blocks until a frame
// is available or ctx is done; it returns io.EOF when the source is
// exhausted for good.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// frame file extensions a spool directory source will pick up.
var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// DirectorySource consumes image files dropped into a spool directory
// by an external capture process, oldest first. Consumed files are
// deleted; undecodable files are renamed aside so they cannot wedge
// the loop.
type DirectorySource struct {
	dir          string
	pollInterval time.Duration
}

// NewDirectorySource watches dir for frames, polling at interval
// (defaults to 200ms when zero or negative).
func NewDirectorySource(dir string, interval time.Duration) *DirectorySource {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &DirectorySource{dir: dir, pollInterval: interval}
}

// Next returns the oldest decodable frame in the spool directory,
// polling until one arrives or ctx is done.
func (s *DirectorySource) Next(ctx context.Context) (Frame, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		frame, ok, err := s.tryNext()
		if err != nil {
			return Frame{}, err
		}
		if ok {
			return frame, nil
		}

		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *DirectorySource) tryNext() (Frame, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Frame{}, false, fmt.Errorf("read spool directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].modTime.Equal(candidates[j].modTime) {
			return candidates[i].modTime.Before(candidates[j].modTime)
		}
		return candidates[i].path < candidates[j].path
	})

	for _, c := range candidates {
		img, err := imaging.Open(c.path)
		if err != nil {
			// Set the file aside so the next poll does not trip
			// over it again.
			os.Rename(c.path, c.path+".bad")
			continue
		}
		if err := os.Remove(c.path); err != nil {
			return Frame{}, false, fmt.Errorf("consume frame %s: %w", c.path, err)
		}
		return Frame{Image: img, Origin: c.path}, true, nil
	}
	return Frame{}, false, nil
}

// FileSource yields a single image file once, for one-shot scans.
type FileSource struct {
	path string
	done bool
}

// NewFileSource reads one frame from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Next returns the file's image on the first call and io.EOF after.
func (s *FileSource) Next(ctx context.Context) (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.done = true

	img, err := imaging.Open(s.path)
	if err != nil {
		return Frame{}, fmt.Errorf("open frame %s: %w", s.path, err)
	}
	return Frame{Image: img, Origin: s.path}, nil
}
