package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lunaticfringe9/openpan/internal/api"
	"github.com/lunaticfringe9/openpan/internal/hasher"
	"github.com/lunaticfringe9/openpan/pkg/logging"
)

// Duplicate-handling policies the service accepts on upload_request.
const (
	duplicateAsk    = 0
	duplicateRename = 2
)

// chunkSession is a multipart upload context scoping a sequence of part
// uploads. All four identifiers are required together; a negotiation that
// supplies only some of them is malformed.
type chunkSession struct {
	fileID      int64
	uploadID    string
	key         string
	bucket      string
	storageNode string
}

func (s chunkSession) basePayload() map[string]any {
	return map[string]any{
		"bucket":      s.bucket,
		"key":         s.key,
		"uploadId":    s.uploadID,
		"storageNode": s.storageNode,
	}
}

// Upload moves the file at path into the remote folder parentFileID. When
// the service already holds content matching the fingerprint the transfer
// completes instantly without moving any bytes; otherwise the file is
// streamed in sequential fixed-size parts to presigned storage
// destinations and finalized with two completion signals.
func (e *Engine) Upload(ctx context.Context, parentFileID int64, path string) error {
	id := path
	fileName := filepath.Base(path)

	logging.Log.Infof("upload started: %s", fileName)
	e.emit(Event{ID: id, Progress: 0, Status: StatusHashing})

	etag, size, err := hasher.SumFile(path)
	if err != nil {
		return e.fail(id, err)
	}

	data, err := e.negotiate(ctx, parentFileID, fileName, etag, size)
	if err != nil {
		return e.fail(id, err)
	}

	if data.Reuse {
		logging.Log.Infof("instant upload, content already on server: %s", fileName)
		e.emit(Event{ID: id, Progress: 100, Status: StatusFinished})
		return nil
	}

	sess, err := newChunkSession(data)
	if err != nil {
		return e.fail(id, err)
	}

	if err := e.uploadParts(ctx, id, path, size, sess); err != nil {
		return e.fail(id, err)
	}

	if err := e.finalize(ctx, sess); err != nil {
		return e.fail(id, err)
	}

	logging.Log.Infof("upload finished: %s", fileName)
	e.emit(Event{ID: id, Progress: 100, Status: StatusFinished})
	return nil
}

// negotiate sends the upload request with the "ask" duplicate policy and
// retries exactly once with auto-rename when the service reports a name
// conflict. This is the only automatic retry in the whole engine.
func (e *Engine) negotiate(ctx context.Context, parentFileID int64, fileName, etag string, size int64) (*api.UploadRequestData, error) {
	payload := func(duplicate int) map[string]any {
		return map[string]any{
			"driveId":      0,
			"etag":         etag,
			"fileName":     fileName,
			"parentFileId": parentFileID,
			"size":         size,
			"type":         0,
			"duplicate":    duplicate,
		}
	}

	var res api.UploadRequestResponse
	if err := e.client.PostJSON(ctx, api.EndpointUploadRequest, payload(duplicateAsk), &res); err != nil {
		return nil, err
	}

	if res.Code == api.CodeNameConflict {
		logging.Log.Infof("name conflict for %q, retrying with auto-rename", fileName)
		res = api.UploadRequestResponse{}
		if err := e.client.PostJSON(ctx, api.EndpointUploadRequest, payload(duplicateRename), &res); err != nil {
			return nil, err
		}
	}

	if res.Code != 0 {
		return nil, &api.APIError{Code: res.Code, Message: res.Message}
	}
	if res.Data == nil {
		return nil, fmt.Errorf("%w: upload request returned no data", api.ErrProtocol)
	}
	return res.Data, nil
}

func newChunkSession(data *api.UploadRequestData) (chunkSession, error) {
	if data.UploadID == "" || data.Key == "" || data.Bucket == "" || data.StorageNode == "" {
		return chunkSession{}, fmt.Errorf("%w: missing chunk session fields", api.ErrProtocol)
	}
	return chunkSession{
		fileID:      data.FileID,
		uploadID:    data.UploadID,
		key:         data.Key,
		bucket:      data.Bucket,
		storageNode: data.StorageNode,
	}, nil
}

// uploadParts streams the file in sequential parts. Part numbers are dense
// and 1-based; each part's presigned destination is fetched just-in-time
// and used exactly once.
func (e *Engine) uploadParts(ctx context.Context, id, path string, size int64, sess chunkSession) error {
	// Idempotent registry initialization; must precede the first part.
	if err := e.client.PostJSON(ctx, api.EndpointListUploadParts, sess.basePayload(), nil); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening file: %v", api.ErrLocalIO, err)
	}
	defer file.Close()

	buf := make([]byte, e.partSize)
	partNumber := 1
	var uploaded int64

	for {
		n, readErr := io.ReadFull(file, buf)
		if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: reading part %d: %v", api.ErrLocalIO, partNumber, readErr)
		}
		if n == 0 {
			break
		}

		destination, err := e.partDestination(ctx, sess, partNumber)
		if err != nil {
			return err
		}

		if err := e.client.PutPart(ctx, destination, bytes.NewReader(buf[:n]), int64(n)); err != nil {
			return fmt.Errorf("part %d: %w", partNumber, err)
		}

		uploaded += int64(n)
		partNumber++

		if size > 0 {
			e.emit(Event{ID: id, Progress: uploaded * 100 / size, Status: StatusUploading})
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
	}

	return nil
}

// partDestination fetches the single-use presigned URL for exactly one
// part number. Destinations are never prefetched in batches.
func (e *Engine) partDestination(ctx context.Context, sess chunkSession, partNumber int) (string, error) {
	payload := sess.basePayload()
	payload["partNumberStart"] = partNumber
	payload["partNumberEnd"] = partNumber + 1

	var res api.PresignedURLResponse
	if err := e.client.PostJSON(ctx, api.EndpointPrepareParts, payload, &res); err != nil {
		return "", err
	}
	if res.Code != 0 {
		return "", &api.APIError{Code: res.Code, Message: res.Message}
	}

	if res.Data != nil {
		if u, ok := res.Data.PresignedURLs[strconv.Itoa(partNumber)]; ok && u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: no presigned url for part %d", api.ErrProtocol, partNumber)
}

// finalize sends the storage-side multipart completion followed by the
// service-side upload_complete. Both must succeed; a partial finalization
// is surfaced as an error and the caller retries the whole negotiation.
func (e *Engine) finalize(ctx context.Context, sess chunkSession) error {
	var res api.BasicResponse
	if err := e.client.PostJSON(ctx, api.EndpointCompleteMultipart, sess.basePayload(), &res); err != nil {
		return fmt.Errorf("%w: %v", api.ErrFinalize, err)
	}
	if res.Code != 0 {
		return fmt.Errorf("%w: complete multipart returned code %d: %s", api.ErrFinalize, res.Code, res.Message)
	}

	payload := map[string]any{"fileId": sess.fileID}
	if err := e.client.PostStatus(ctx, api.EndpointUploadComplete, payload); err != nil {
		return fmt.Errorf("%w: %v", api.ErrFinalize, err)
	}
	return nil
}
