package files

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaticfringe9/openpan/internal/api"
	"github.com/lunaticfringe9/openpan/internal/auth"
)

func newService(srvURL string) *Service {
	session := auth.NewSession()
	session.SetToken("Bearer test-token")
	return NewService(api.NewClient(srvURL, "test-agent", session))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestListWalksAllPages(t *testing.T) {
	const total = 150
	var mu sync.Mutex
	var pagesSeen []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, api.EndpointFileList, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "77", q.Get("parentFileId"))
		assert.Equal(t, "false", q.Get("trashed"))

		page := q.Get("Page")
		mu.Lock()
		pagesSeen = append(pagesSeen, page)
		mu.Unlock()

		start, count := 0, 100
		if page == "2" {
			start, count = 100, 50
		}
		entries := make([]api.FileEntry, 0, count)
		for i := 0; i < count; i++ {
			entries = append(entries, api.FileEntry{
				FileID:   int64(start + i),
				FileName: fmt.Sprintf("file-%d", start+i),
			})
		}
		writeJSON(w, api.FileListResponse{Code: 0, Data: &api.FileListData{
			InfoList: entries,
			Total:    total,
		}})
	}))
	defer srv.Close()

	got, err := newService(srv.URL).List(context.Background(), 77)
	require.NoError(t, err)
	assert.Len(t, got, total)
	assert.Equal(t, []string{"1", "2"}, pagesSeen)
	assert.Equal(t, "file-0", got[0].FileName)
	assert.Equal(t, "file-149", got[total-1].FileName)
}

func TestListServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.FileListResponse{Code: 401, Message: "unauthorized"})
	}))
	defer srv.Close()

	_, err := newService(srv.URL).List(context.Background(), 0)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int64(401), apiErr.Code)
}

func TestCreateFolderPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, api.EndpointCreateFolder, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, api.BasicResponse{Code: 0})
	}))
	defer srv.Close()

	require.NoError(t, newService(srv.URL).CreateFolder(context.Background(), 12, "holiday"))

	assert.Equal(t, "holiday", got["fileName"])
	assert.Equal(t, float64(12), got["parentFileId"])
	assert.Equal(t, float64(1), got["type"])
	assert.Equal(t, true, got["NotReuse"])
	assert.Equal(t, "newCreateFolder", got["event"])
}

func TestTrashPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, api.EndpointTrash, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, api.BasicResponse{Code: 0})
	}))
	defer srv.Close()

	require.NoError(t, newService(srv.URL).Trash(context.Background(), 555))

	assert.Equal(t, true, got["operation"])
	list := got["fileTrashInfoList"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, float64(555), list[0].(map[string]any)["fileId"])
}

func TestShareBuildsURL(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, api.EndpointShareCreate, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, api.ShareResponse{Code: 0, Data: &api.ShareData{ShareKey: "Kx9z"}})
	}))
	defer srv.Close()

	result, err := newService(srv.URL).Share(context.Background(), []int64{1, 2}, "pw12")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/s/Kx9z", result.URL)
	assert.Equal(t, "pw12", result.Password)
	assert.Equal(t, "1,2", got["fileIdList"])
	assert.Equal(t, "pw12", got["sharePwd"])
}

func TestShareNoFilesSelected(t *testing.T) {
	_, err := newService("http://unused").Share(context.Background(), nil, "")
	assert.Error(t, err)
}
