// SPDX-License-Identifier: MIT

package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vodee/vodee/internal/fsutil"
)

// copyChunkSize bounds each read so a slow client never forces the whole
// requested window into memory.
const copyChunkSize = 64 << 10

// RangeWindow is the byte window derived from a Range header and the file's
// current size. End is inclusive.
type RangeWindow struct {
	Start int64
	End   int64
	Size  int64
}

// Length returns the number of bytes covered by the window.
func (w RangeWindow) Length() int64 {
	return w.End - w.Start + 1
}

// ContentRange renders the window as a Content-Range header value.
func (w RangeWindow) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, w.Size)
}

// ParseRange parses a "bytes=<start>-[<end>]" header against the file size.
// A missing end defaults to size-1; an end beyond the file is clamped. An
// empty header returns a nil window (stream the whole file). Malformed or
// out-of-bounds ranges (start beyond the file, start after end) yield a
// RangeError. Multi-range requests are not supported and are treated the
// same way.
func ParseRange(header string, size int64) (*RangeWindow, error) {
	if header == "" {
		return nil, nil
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, &RangeError{Size: size, Reason: "unsupported unit"}
	}
	if strings.Contains(spec, ",") {
		return nil, &RangeError{Size: size, Reason: "multi-range not supported"}
	}
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, &RangeError{Size: size, Reason: "malformed range"}
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, &RangeError{Size: size, Reason: "malformed start"}
	}

	end := size - 1
	if s := strings.TrimSpace(endStr); s != "" {
		end, err = strconv.ParseInt(s, 10, 64)
		if err != nil || end < 0 {
			return nil, &RangeError{Size: size, Reason: "malformed end"}
		}
	}
	if end > size-1 {
		end = size - 1
	}

	if start >= size {
		return nil, &RangeError{Size: size, Reason: "start beyond end of file"}
	}
	if start > end {
		return nil, &RangeError{Size: size, Reason: "start after end"}
	}

	return &RangeWindow{Start: start, End: end, Size: size}, nil
}

// Source is an opened, policy-checked media file. Callers must Close it on
// every exit path.
type Source struct {
	file        *os.File
	Name        string
	Size        int64
	ContentType string
}

// Close releases the underlying file handle.
func (s *Source) Close() error {
	return s.file.Close()
}

// Streamer opens media files for byte-range streaming.
type Streamer struct {
	resolver *fsutil.Resolver
	policy   Policy
}

// NewStreamer builds a streamer over the given resolver and extension policy.
func NewStreamer(resolver *fsutil.Resolver, policy Policy) *Streamer {
	return &Streamer{resolver: resolver, policy: policy}
}

// Open resolves rel, enforces the extension policy, and opens the file. The
// size is read from the open handle so it reflects the file as served, not a
// stale listing.
func (s *Streamer) Open(rel string) (*Source, error) {
	fullPath, err := s.resolver.Resolve(rel)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(fullPath)
	if !s.policy.Allows(ext) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, ext)
	}

	f, err := os.Open(fullPath) // #nosec G304 -- fullPath is confined to the media root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, fmt.Errorf("open %s: %w", rel, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}

	return &Source{
		file:        f,
		Name:        info.Name(),
		Size:        info.Size(),
		ContentType: ContentType(fullPath),
	}, nil
}

// Copy streams the window from src to dst in bounded chunks. Each write goes
// straight to the sink, so its flow control paces the reads. Cancellation of
// ctx (client disconnect) terminates the loop between chunks; the caller's
// deferred Close releases the file handle.
func Copy(ctx context.Context, dst io.Writer, src *Source, win RangeWindow) (int64, error) {
	section := io.NewSectionReader(src.file, win.Start, win.Length())
	flusher, _ := dst.(http.Flusher)

	var written int64
	buf := make([]byte, copyChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := section.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
