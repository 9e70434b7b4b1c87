package whisper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempWav(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFfakewav"), 0644))

	return path
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "audio.wav", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text": " batch five zero six three zero "}`)
	}))
	defer server.Close()

	text, err := newClient(server.URL).Transcribe(context.Background(), writeTempWav(t))
	require.NoError(t, err)
	require.Equal(t, " batch five zero six three zero ", text)
}

func TestTranscribe_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newClient(server.URL).Transcribe(context.Background(), writeTempWav(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestTranscribe_MissingFile(t *testing.T) {
	_, err := newClient("http://localhost:1").Transcribe(context.Background(), "/nonexistent/audio.wav")
	require.Error(t, err)
}
