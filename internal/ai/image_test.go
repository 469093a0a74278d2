package ai_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"novel-stella/internal/ai"
	"novel-stella/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newImageServer отвечает на /images/generations ссылкой на /image того же сервера.
func newImageServer(t *testing.T, serveImage http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": time.Now().Unix(),
			"data":    []map[string]string{{"url": srv.URL + "/image"}},
		})
	})
	mux.HandleFunc("/image", serveImage)
	t.Cleanup(srv.Close)
	return srv
}

func newImageClient(baseURL string, maxBytes int64) ai.ImageClient {
	return ai.NewImageClient(&config.Config{
		AIAPIKey:      "test",
		AIBaseURL:     baseURL,
		AITimeout:     5 * time.Second,
		ImageModel:    "dall-e-3",
		ImageSize:     "1024x1024",
		ImageQuality:  "standard",
		ImageMaxBytes: maxBytes,
	}, zap.NewNop())
}

func TestGenerateImage_DownloadsImage(t *testing.T) {
	png := []byte("\x89PNG fake image")
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(png)
	})

	data, err := newImageClient(srv.URL, 64).GenerateImage(context.Background(), "a castle")
	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestGenerateImage_SizeLimit(t *testing.T) {
	const limit = 64

	t.Run("exactly at limit", func(t *testing.T) {
		srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte{'x'}, limit))
		})
		data, err := newImageClient(srv.URL, limit).GenerateImage(context.Background(), "p")
		require.NoError(t, err)
		assert.Len(t, data, limit)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "4096")
			_, _ = w.Write(bytes.Repeat([]byte{'x'}, 4096))
		})
		_, err := newImageClient(srv.URL, limit).GenerateImage(context.Background(), "p")
		assert.ErrorIs(t, err, ai.ErrImageGenerationFailed)
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
			// без Content-Length: ответ уходит chunked
			for range 10 {
				_, _ = w.Write(bytes.Repeat([]byte{'x'}, limit))
				w.(http.Flusher).Flush()
			}
		})
		_, err := newImageClient(srv.URL, limit).GenerateImage(context.Background(), "p")
		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrImageGenerationFailed)
		assert.Contains(t, err.Error(), "exceeds")
	})
}

func TestGenerateImage_DownloadStatus(t *testing.T) {
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	_, err := newImageClient(srv.URL, 64).GenerateImage(context.Background(), "p")
	assert.ErrorIs(t, err, ai.ErrImageGenerationFailed)
}
