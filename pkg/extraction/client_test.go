package extraction

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"Harina-Web-Backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *harinaClient {
	return &harinaClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

func TestHarinaClient_Process(t *testing.T) {
	var gotPath, gotModel, gotFormat, gotInstructions, gotContentType string
	var gotImage []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(32<<20))
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("format")
		gotInstructions = r.FormValue("instructions")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotContentType = header.Header.Get("Content-Type")
		gotImage, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":"<receipt></receipt>","format":"xml","model":"gemini/gemini-2.5-flash","fallbackUsed":true,"keyType":"user"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Process(context.Background(), []byte{0xFF, 0xD8}, "receipt.jpg", "gemini/gemini-2.5-flash", "group by aisle")
	require.NoError(t, err)

	assert.Equal(t, "/process", gotPath)
	assert.Equal(t, "gemini/gemini-2.5-flash", gotModel)
	assert.Equal(t, "xml", gotFormat)
	assert.Equal(t, "group by aisle", gotInstructions)
	assert.Equal(t, "image/jpeg", gotContentType)
	assert.Equal(t, []byte{0xFF, 0xD8}, gotImage)

	assert.Equal(t, "<receipt></receipt>", result.Data)
	assert.Equal(t, "gemini/gemini-2.5-flash", result.Model)
	assert.True(t, result.FallbackUsed)
	assert.Equal(t, "user", result.KeyType)
}

func TestHarinaClient_Process_OmitsBlankInstructions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		_, present := r.MultipartForm.Value["instructions"]
		assert.False(t, present)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":"<receipt></receipt>","format":"xml"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Process(context.Background(), []byte("img"), "a.png", "m", "   ")
	require.NoError(t, err)
}

func TestHarinaClient_Process_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Process(context.Background(), []byte("img"), "a.jpg", "m", "")
	require.Error(t, err)

	var serviceErr *domain.ExtractionServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusInternalServerError, serviceErr.Status)
	assert.Equal(t, "boom", serviceErr.Body)
}

func TestHarinaClient_Process_ServiceReportedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"no api key configured"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Process(context.Background(), []byte("img"), "a.jpg", "m", "")
	require.Error(t, err)

	var serviceErr *domain.ExtractionServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusBadGateway, serviceErr.Status)
	assert.Equal(t, "no api key configured", serviceErr.Body)
}
