// Package transfer implements the upload and download engines: content
// fingerprinting, upload negotiation with content-addressed reuse, the
// sequential part-upload loop against presigned storage destinations, the
// two-step download link resolution and the streaming copy to disk.
package transfer

import (
	"github.com/lunaticfringe9/openpan/internal/api"
)

// DefaultPartSize is the fixed upload part size. Every part except the
// last is exactly this long.
const DefaultPartSize int64 = 5 * 1024 * 1024

// Engine runs uploads and downloads against the service API. Each call is
// self-contained: the engine holds no per-transfer state between calls, and
// the token in use is whatever the session held when the call started.
type Engine struct {
	client   *api.Client
	report   Reporter
	partSize int64
}

// NewEngine creates an engine emitting progress to report, which may be
// nil.
func NewEngine(client *api.Client, report Reporter) *Engine {
	return &Engine{
		client:   client,
		report:   report,
		partSize: DefaultPartSize,
	}
}
