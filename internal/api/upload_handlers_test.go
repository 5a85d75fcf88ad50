package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/contact-intake/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadRelaysHostResponse(t *testing.T) {
	host := &fakeHost{
		result: &media.Result{
			Status:      http.StatusCreated,
			ContentType: "application/json",
			Body:        []byte(`{"id":"img-1","url":"https://cdn.example.com/uploads/img-1.png"}`),
		},
	}
	router := newTestRouter(t, nil, nil, host, false)

	body, contentType := multipartBody(t, "file", "photo.png", []byte("fake png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// The host's response passes through untouched.
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"img-1","url":"https://cdn.example.com/uploads/img-1.png"}`, rec.Body.String())

	assert.Equal(t, "photo.png", host.gotFilename)
	assert.Equal(t, []byte("fake png bytes"), host.gotData)
}

func TestUploadWithoutHost(t *testing.T) {
	router := newTestRouter(t, nil, nil, nil, false)

	body, contentType := multipartBody(t, "file", "photo.png", []byte("fake png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"uploads require a media host configuration"}`, rec.Body.String())
}

func TestUploadRejectsInvalidFile(t *testing.T) {
	host := &fakeHost{
		err: fmt.Errorf("%w: unsupported image type text/plain", media.ErrInvalidUpload),
	}
	router := newTestRouter(t, nil, nil, host, false)

	body, contentType := multipartBody(t, "file", "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported image type")
}

func TestUploadHostFailure(t *testing.T) {
	host := &fakeHost{err: errors.New("dial tcp 10.0.0.5:443: i/o timeout")}
	router := newTestRouter(t, nil, nil, host, false)

	body, contentType := multipartBody(t, "file", "photo.png", []byte("fake png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"upload failed"}`, rec.Body.String())
}

func TestUploadRequiresFileField(t *testing.T) {
	host := &fakeHost{result: &media.Result{Status: http.StatusCreated}}
	router := newTestRouter(t, nil, nil, host, false)

	body, contentType := multipartBody(t, "attachment", "photo.png", []byte("fake png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file provided")
	assert.Empty(t, host.gotFilename)
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	host := &fakeHost{result: &media.Result{Status: http.StatusCreated}}
	router := newTestRouter(t, nil, nil, host, false)

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewBufferString(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to parse form")
}
