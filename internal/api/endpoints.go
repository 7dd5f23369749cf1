package api

// DefaultBase is the production service root.
const DefaultBase = "https://www.123pan.com"

// DefaultUserAgent mimics the official Android client.
const DefaultUserAgent = "123pan/v2.4.0(Android_7.1.2;Xiaomi)"

// Service endpoint paths. The vendor splits endpoints across two API
// prefixes for historical reasons; the split is load-bearing.
const (
	EndpointSignIn            = "/b/api/user/sign_in"
	EndpointFileList          = "/b/api/file/list/new"
	EndpointUploadRequest     = "/b/api/file/upload_request"
	EndpointListUploadParts   = "/b/api/file/s3_list_upload_parts"
	EndpointPrepareParts      = "/b/api/file/s3_repare_upload_parts_batch"
	EndpointCompleteMultipart = "/b/api/file/s3_complete_multipart_upload"
	EndpointUploadComplete    = "/b/api/file/upload_complete"
	EndpointDownloadInfo      = "/a/api/file/download_info"
	EndpointBatchDownload     = "/a/api/file/batch_download_info"
	EndpointCreateFolder      = "/a/api/file/upload_request"
	EndpointTrash             = "/a/api/file/trash"
	EndpointShareCreate       = "/a/api/share/create"
)
