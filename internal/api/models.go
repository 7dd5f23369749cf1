package api

// FileEntry is one row of a remote directory listing. The transfer engine
// consumes it read-only to obtain the parameters a download needs.
type FileEntry struct {
	FileID    int64  `json:"FileId"`
	FileName  string `json:"FileName"`
	Size      int64  `json:"Size"`
	Type      int    `json:"Type"` // 0: file, 1: folder
	Etag      string `json:"Etag"`
	S3KeyFlag string `json:"S3KeyFlag"`
}

// IsFolder reports whether the entry is a folder rather than a plain file.
func (e FileEntry) IsFolder() bool {
	return e.Type == 1
}

// SignInResponse is the body of POST /b/api/user/sign_in. Unlike every other
// endpoint, success is code 200, not 0.
type SignInResponse struct {
	Code    int64       `json:"code"`
	Message string      `json:"message"`
	Data    *SignInData `json:"data"`
}

type SignInData struct {
	Token string `json:"token"`
}

// FileListResponse is the body of GET /b/api/file/list/new.
type FileListResponse struct {
	Code    int64         `json:"code"`
	Message string        `json:"message"`
	Data    *FileListData `json:"data"`
}

type FileListData struct {
	InfoList []FileEntry `json:"InfoList"`
	Total    int64       `json:"Total"`
}

// UploadRequestResponse is the body of POST /b/api/file/upload_request.
// On reuse the server already holds matching content and only FileID is
// meaningful; otherwise the chunk-session fields describe where parts go.
type UploadRequestResponse struct {
	Code    int64              `json:"code"`
	Message string             `json:"message"`
	Data    *UploadRequestData `json:"data"`
}

type UploadRequestData struct {
	FileID      int64  `json:"FileId"`
	Reuse       bool   `json:"Reuse"`
	UploadID    string `json:"UploadId"`
	Key         string `json:"Key"`
	Bucket      string `json:"Bucket"`
	StorageNode string `json:"StorageNode"`
}

// PresignedURLResponse is the body of POST /b/api/file/s3_repare_upload_parts_batch.
// PresignedURLs is keyed by decimal part number.
type PresignedURLResponse struct {
	Code    int64             `json:"code"`
	Message string            `json:"message"`
	Data    *PresignedURLData `json:"data"`
}

type PresignedURLData struct {
	PresignedURLs map[string]string `json:"presignedUrls"`
}

// DownloadInfoResponse is the body of both download_info and
// batch_download_info. DownloadURL is an intermediate URL that still needs
// one resolution step before it serves bytes.
type DownloadInfoResponse struct {
	Code    int64             `json:"code"`
	Message string            `json:"message"`
	Data    *DownloadInfoData `json:"data"`
}

type DownloadInfoData struct {
	DownloadURL string `json:"DownloadUrl"`
}

// ShareResponse is the body of POST /a/api/share/create.
type ShareResponse struct {
	Code    int64      `json:"code"`
	Message string     `json:"message"`
	Data    *ShareData `json:"data"`
}

type ShareData struct {
	ShareKey string `json:"ShareKey"`
}

// BasicResponse covers endpoints where only the service code matters.
type BasicResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}
