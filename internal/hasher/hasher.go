// Package hasher produces the content fingerprint the upload negotiation
// is keyed on: a streaming MD5 over the local file plus the exact byte
// length observed while hashing.
package hasher

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/lunaticfringe9/openpan/internal/api"
)

const bufferSize = 8 * 1024

// SumFile hashes the file at path in a separate goroutine so the caller's
// event-emission path is not blocked on disk throughput. The reported
// length is the number of bytes actually hashed, even if the file is
// concurrently truncated; no re-check is performed.
func SumFile(path string) (string, int64, error) {
	type result struct {
		sum  string
		size int64
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		sum, size, err := sumBlocking(path)
		ch <- result{sum: sum, size: size, err: err}
	}()

	r := <-ch
	return r.sum, r.size, r.err
}

func sumBlocking(path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: opening file: %v", api.ErrLocalIO, err)
	}
	defer file.Close()

	digest := md5.New()
	buf := make([]byte, bufferSize)
	var size int64

	for {
		n, err := file.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
			size += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("%w: reading file: %v", api.ErrLocalIO, err)
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), size, nil
}
