package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"

	"github.com/lunaticfringe9/openpan/internal/api"
	"github.com/lunaticfringe9/openpan/pkg/logging"
)

// anchorPattern matches the download link embedded in the interstitial
// page some resolution paths return instead of a redirect.
var anchorPattern = regexp.MustCompile(`href='(https?://[^']+)'`)

// resolvedVia tags which of the two accepted response shapes produced the
// final URL.
type resolvedVia int

const (
	viaLocationHeader resolvedVia = iota
	viaEmbeddedLink
)

// resolvedURL is the final byte-serving URL and how it was obtained.
type resolvedURL struct {
	url string
	via resolvedVia
}

// Download fetches the remote entry to savePath. Folders arrive as a
// packaged archive. An existing file at savePath is overwritten.
func (e *Engine) Download(ctx context.Context, entry api.FileEntry, savePath string) error {
	id := strconv.FormatInt(entry.FileID, 10)
	logging.Log.Infof("download started: %s (folder=%v)", entry.FileName, entry.IsFolder())

	intermediate, err := e.downloadTicket(ctx, entry)
	if err != nil {
		return e.fail(id, err)
	}

	final, err := e.resolve(ctx, intermediate)
	if err != nil {
		return e.fail(id, err)
	}
	logging.Log.Debugf("resolved download url (via=%d): %s", final.via, final.url)

	if err := e.stream(ctx, id, final.url, savePath, entry.Size); err != nil {
		return e.fail(id, err)
	}

	logging.Log.Infof("download finished: %s", entry.FileName)
	return nil
}

// downloadTicket obtains the intermediate URL: a batch-download ticket for
// folders (single-item list), a per-file download-info ticket otherwise.
// Both paths converge on the same shape.
func (e *Engine) downloadTicket(ctx context.Context, entry api.FileEntry) (string, error) {
	var payload map[string]any
	endpoint := api.EndpointDownloadInfo

	if entry.IsFolder() {
		endpoint = api.EndpointBatchDownload
		payload = map[string]any{
			"fileIdList": []map[string]any{{"fileId": entry.FileID}},
		}
	} else {
		payload = map[string]any{
			"driveId":   0,
			"fileId":    entry.FileID,
			"etag":      entry.Etag,
			"s3keyFlag": entry.S3KeyFlag,
			"type":      0,
			"fileName":  entry.FileName,
			"size":      entry.Size,
		}
	}

	var res api.DownloadInfoResponse
	if err := e.client.PostJSON(ctx, endpoint, payload, &res); err != nil {
		return "", err
	}
	if res.Code != 0 {
		return "", &api.APIError{Code: res.Code, Message: res.Message}
	}
	if res.Data == nil || res.Data.DownloadURL == "" {
		return "", fmt.Errorf("%w: download info returned no url", api.ErrProtocol)
	}
	return res.Data.DownloadURL, nil
}

// resolve probes the intermediate URL without following redirects and
// extracts the final byte-serving URL from whichever shape the server
// chose for this call.
func (e *Engine) resolve(ctx context.Context, intermediate string) (resolvedURL, error) {
	resp, err := e.client.Probe(ctx, intermediate)
	if err != nil {
		return resolvedURL{}, err
	}
	defer resp.Body.Close()

	return extractFinalURL(resp)
}

// extractFinalURL accepts the two response shapes the service produces: a
// redirect whose Location header is the final URL verbatim, or an HTML
// interstitial page carrying the same link as an anchor. The header wins
// when present; the first anchor match wins otherwise.
func extractFinalURL(resp *http.Response) (resolvedURL, error) {
	if loc := resp.Header.Get("Location"); loc != "" {
		return resolvedURL{url: loc, via: viaLocationHeader}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resolvedURL{}, fmt.Errorf("%w: reading interstitial page: %v", api.ErrNetwork, err)
	}

	if m := anchorPattern.FindSubmatch(body); m != nil {
		return resolvedURL{url: string(m[1]), via: viaEmbeddedLink}, nil
	}
	return resolvedURL{}, api.ErrResolution
}

// stream copies the response body to savePath in arrival-order chunks.
// The transport-reported content length is the size source of record; the
// caller-declared size is the fallback (folder archives often declare 0 or
// a wrong size). With no positive total, percentage events are suppressed
// and only the final event is emitted.
func (e *Engine) stream(ctx context.Context, id, finalURL, savePath string, declaredSize int64) error {
	resp, err := e.client.Fetch(ctx, finalURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	total := resp.ContentLength
	if total <= 0 && declaredSize > 0 {
		total = declaredSize
	}

	file, err := os.Create(savePath)
	if err != nil {
		return fmt.Errorf("%w: creating file: %v", api.ErrLocalIO, err)
	}
	defer file.Close()

	if total > 0 {
		e.emit(Event{ID: id, Progress: 0, Status: StatusDownloading})
	}

	buf := make([]byte, 32*1024)
	var downloaded int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return fmt.Errorf("%w: writing file: %v", api.ErrLocalIO, err)
			}
			downloaded += int64(n)

			if total > 0 {
				e.emit(Event{ID: id, Progress: downloaded * 100 / total, Status: StatusDownloading})
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: download stream interrupted: %v", api.ErrNetwork, readErr)
		}
	}

	e.emit(Event{ID: id, Progress: 100, Status: StatusFinished})
	return nil
}
