package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/bamsammich/tcat/internal/digest"
	"github.com/bamsammich/tcat/internal/platform"
)

// chunkSize is the read buffer each worker streams files through.
const chunkSize = 32 * 1024

// HashFile opens path, streams it through alg and checks that exactly
// declared bytes were read. buf is reused across calls by the caller and
// must not be empty. A nil limiter disables throttling.
func HashFile(
	ctx context.Context,
	path string,
	declared uint64,
	alg digest.Algorithm,
	limiter *rate.Limiter,
	buf []byte,
) (FileRecord, error) {
	if !utf8.ValidString(path) {
		return FileRecord{}, newFileError(path, ErrInvalidPath)
	}
	if strings.IndexByte(path, '\n') >= 0 {
		return FileRecord{}, newFileError(path, ErrNewlineInPath)
	}

	f, err := os.Open(path)
	if err != nil {
		return FileRecord{}, newFileError(path, err)
	}
	defer f.Close()
	platform.AdviseSequential(f)

	var r io.Reader = f
	if limiter != nil {
		r = newThrottledReader(ctx, f, limiter)
	}

	sum, err := hashStream(r, declared, alg, buf)
	if err != nil {
		return FileRecord{}, newFileError(path, err)
	}
	return FileRecord{Path: path, Digest: sum, Size: declared}, nil
}

// hashStream digests r until it is exhausted or more than declared bytes
// have been consumed, then requires the count to equal declared.
func hashStream(r io.Reader, declared uint64, alg digest.Algorithm, buf []byte) (digest.Sum, error) {
	h := alg.New()
	var read uint64
	for read <= declared {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			read += uint64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return digest.Sum{}, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			break
		}
	}

	if read != declared {
		return digest.Sum{}, fmt.Errorf("%w (declared %d, read %d)", ErrSizeMismatch, declared, read)
	}
	return digest.Finish(h), nil
}
