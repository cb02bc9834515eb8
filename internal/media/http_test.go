package media

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(service *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), service)
	return router
}

func multipartUpload(t *testing.T, filename string, content []byte, tags string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if tags != "" {
		require.NoError(t, writer.WriteField("tags", tags))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHTTPUpload(t *testing.T) {
	router := newTestRouter(NewService(newFakeRepo(), newFakeBlobStore(), Options{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, "cat.png", []byte("meow"), `["pets","cats"]`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var asset Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asset))
	assert.Equal(t, "cat.png", asset.OriginalName)
	assert.Equal(t, int64(4), asset.SizeBytes)
	assert.Equal(t, []string{"pets", "cats"}, asset.Tags)
}

func TestHTTPUploadValidation(t *testing.T) {
	router := newTestRouter(NewService(newFakeRepo(), newFakeBlobStore(), Options{MaxUploadBytes: 8}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, "", nil, `["x"]`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrNoFile.Error())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, "a.txt", []byte("x"), `not-json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, "big.txt", []byte("more than eight bytes"), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrFileTooLarge.Error())
}

func TestHTTPDelete(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeBlobStore(), Options{})
	router := newTestRouter(service)
	asset := uploadFixture(t, service, "a.png", "a")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/media/"+asset.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/media/"+asset.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/media/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPBatchDelete(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeBlobStore(), Options{})
	router := newTestRouter(service)
	a := uploadFixture(t, service, "a.png", "a")
	b := uploadFixture(t, service, "b.png", "b")

	send := func(ids ...string) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(batchDeleteRequest{IDs: ids})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/media/batch-delete", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := send(a.ID.String(), uuid.NewString(), b.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var result BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "1 file(s) failed", result.Message)

	rec = send(a.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send()
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send("bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPUpdateTags(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeBlobStore(), Options{})
	router := newTestRouter(service)
	asset := uploadFixture(t, service, "a.png", "a")

	patch := func(id, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/media/"+id+"/tags", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := patch(asset.ID.String(), `{"tags":["b","a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, []string{"b", "a"}, updated.Tags)

	assert.Equal(t, http.StatusBadRequest, patch(asset.ID.String(), `{"tags":"b"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(asset.ID.String(), `{}`).Code)
	assert.Equal(t, http.StatusNotFound, patch(uuid.NewString(), `{"tags":[]}`).Code)
}

func TestHTTPListAndGet(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeBlobStore(), Options{})
	router := newTestRouter(service)
	older := uploadFixtureWithTags(t, service, "a.png", []string{"x"})
	newer := uploadFixtureWithTags(t, service, "b.png", nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/media", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/media?tag=x", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/media/"+older.ID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/media/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPListForTagPath(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeBlobStore(), Options{})
	router := newTestRouter(service)
	beach := uploadFixtureWithTags(t, service, "beach.png", []string{"summer", "sea"})
	uploadFixtureWithTags(t, service, "snow.png", []string{"winter"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tags/summer/media", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var list []Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, beach.ID, list[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tags/autumn/media", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}
