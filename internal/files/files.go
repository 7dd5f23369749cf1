// Package files covers the plain CRUD side of the service: directory
// listings, folder creation, trash and sharing. The transfer engine never
// calls any of this itself; callers pass the FileEntry records it returns
// into upload and download operations.
package files

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lunaticfringe9/openpan/internal/api"
	"github.com/lunaticfringe9/openpan/pkg/logging"
)

const pageSize = 100

// Service issues the CRUD calls against the vendor API.
type Service struct {
	client *api.Client
}

// NewService creates the CRUD collaborator.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List returns the full contents of a remote folder, walking the
// service's page-based listing until the reported total is reached or a
// page comes back empty.
func (s *Service) List(ctx context.Context, parentFileID int64) ([]api.FileEntry, error) {
	logging.Log.Debugf("listing folder %d", parentFileID)

	var all []api.FileEntry
	page := 1
	total := int64(-1)

	for {
		if total != -1 && int64(len(all)) >= total {
			break
		}

		query := url.Values{
			"driveId":              {"0"},
			"limit":                {strconv.Itoa(pageSize)},
			"next":                 {"0"},
			"orderBy":              {"file_id"},
			"orderDirection":       {"desc"},
			"parentFileId":         {strconv.FormatInt(parentFileID, 10)},
			"trashed":              {"false"},
			"SearchData":           {""},
			"Page":                 {strconv.Itoa(page)},
			"OnlyLookAbnormalFile": {"0"},
		}

		var res api.FileListResponse
		if err := s.client.GetJSON(ctx, api.EndpointFileList, query, &res); err != nil {
			return nil, err
		}
		if res.Code != 0 {
			return nil, &api.APIError{Code: res.Code, Message: res.Message}
		}
		if res.Data == nil {
			break
		}

		if total == -1 {
			total = res.Data.Total
		}
		if len(res.Data.InfoList) == 0 {
			break
		}

		all = append(all, res.Data.InfoList...)
		page++
	}

	logging.Log.Debugf("folder %d holds %d entries", parentFileID, len(all))
	return all, nil
}

// CreateFolder creates a folder under parentFileID. The service models
// folder creation as a special upload request.
func (s *Service) CreateFolder(ctx context.Context, parentFileID int64, name string) error {
	payload := map[string]any{
		"driveId":      0,
		"etag":         "",
		"fileName":     name,
		"parentFileId": parentFileID,
		"size":         0,
		"type":         1,
		"duplicate":    1,
		"NotReuse":     true,
		"event":        "newCreateFolder",
		"operateType":  1,
	}

	var res api.BasicResponse
	if err := s.client.PostJSON(ctx, api.EndpointCreateFolder, payload, &res); err != nil {
		return err
	}
	if res.Code != 0 {
		return &api.APIError{Code: res.Code, Message: res.Message}
	}

	logging.Log.Infof("created folder %q under %d", name, parentFileID)
	return nil
}

// Trash moves a file or folder into the recycle bin.
func (s *Service) Trash(ctx context.Context, fileID int64) error {
	payload := map[string]any{
		"driveId": 0,
		"fileTrashInfoList": []map[string]any{
			{"fileId": fileID},
		},
		"operation": true, // true = trash, false = restore
	}

	var res api.BasicResponse
	if err := s.client.PostJSON(ctx, api.EndpointTrash, payload, &res); err != nil {
		return err
	}
	if res.Code != 0 {
		return &api.APIError{Code: res.Code, Message: res.Message}
	}

	logging.Log.Infof("trashed file %d", fileID)
	return nil
}

// ShareResult is the outcome of a share: a public URL plus the optional
// extraction password.
type ShareResult struct {
	URL      string
	Password string
}

// Share creates a share link covering the given files.
func (s *Service) Share(ctx context.Context, fileIDs []int64, password string) (*ShareResult, error) {
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("no files selected")
	}

	ids := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	payload := map[string]any{
		"driveId":    0,
		"expiration": "2099-12-12T08:00:00+08:00",
		"fileIdList": strings.Join(ids, ","),
		"shareName":  "My Share",
		"sharePwd":   password,
		"event":      "shareCreate",
	}

	var res api.ShareResponse
	if err := s.client.PostJSON(ctx, api.EndpointShareCreate, payload, &res); err != nil {
		return nil, err
	}
	if res.Code != 0 {
		return nil, &api.APIError{Code: res.Code, Message: res.Message}
	}
	if res.Data == nil || res.Data.ShareKey == "" {
		return nil, fmt.Errorf("%w: share returned no key", api.ErrProtocol)
	}

	return &ShareResult{
		URL:      s.client.Base() + "/s/" + res.Data.ShareKey,
		Password: password,
	}, nil
}
