package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunAttemptsFirstSuccessWins(t *testing.T) {
	t.Parallel()

	attempts := encodeAttempts(".png")

	// All encoders available: AVIF wins.
	attempt, data, err := runAttempts(attempts, func(a Attempt) ([]byte, error) {
		return []byte(a.Format), nil
	})
	if err != nil {
		t.Fatalf("runAttempts: %v", err)
	}
	if attempt.Format != "avif" || attempt.Mime != "image/avif" {
		t.Errorf("winner = %s (%s), want avif", attempt.Format, attempt.Mime)
	}
	if string(data) != "avif" {
		t.Errorf("data = %q, want avif payload", data)
	}
}

func TestRunAttemptsFallsBackToJpeg(t *testing.T) {
	t.Parallel()

	// Only the JPEG encoder is available.
	attempt, _, err := runAttempts(encodeAttempts(".png"), func(a Attempt) ([]byte, error) {
		if a.Format != "jpeg" {
			return nil, errors.New("encoder not built in")
		}
		return []byte("jpeg"), nil
	})
	if err != nil {
		t.Fatalf("runAttempts: %v", err)
	}
	if attempt.Format != "jpeg" || attempt.Mime != "image/jpeg" {
		t.Errorf("winner = %s (%s), want jpeg", attempt.Format, attempt.Mime)
	}
}

func TestRunAttemptsAllFail(t *testing.T) {
	t.Parallel()

	_, _, err := runAttempts(encodeAttempts(".png"), func(a Attempt) ([]byte, error) {
		return nil, errors.New("encoder not built in")
	})
	if err == nil {
		t.Fatal("expected error when every attempt fails")
	}
}

func TestRunAttemptsStopsAfterSuccess(t *testing.T) {
	t.Parallel()

	tried := 0
	_, _, err := runAttempts(encodeAttempts(".png"), func(a Attempt) ([]byte, error) {
		tried++
		return []byte("x"), nil
	})
	if err != nil {
		t.Fatalf("runAttempts: %v", err)
	}
	if tried != 1 {
		t.Errorf("tried %d attempts after a success, want 1", tried)
	}
}

func TestEncodeAttemptsOrderAndQuality(t *testing.T) {
	t.Parallel()

	attempts := encodeAttempts(".png")
	wantOrder := []string{"avif", "webp", "jpeg"}
	wantQuality := []int{50, 80, 82}
	if len(attempts) != len(wantOrder) {
		t.Fatalf("got %d attempts, want %d", len(attempts), len(wantOrder))
	}
	for i, a := range attempts {
		if a.Format != wantOrder[i] {
			t.Errorf("attempt %d = %s, want %s", i, a.Format, wantOrder[i])
		}
		if a.Quality != wantQuality[i] {
			t.Errorf("attempt %d quality = %d, want %d", i, a.Quality, wantQuality[i])
		}
	}
}

func TestEncodeAttemptsResizeOnlyQuality(t *testing.T) {
	t.Parallel()

	// A JPEG source hitting the JPEG attempt is a resize, not a
	// conversion, so quality rises to 95.
	for _, ext := range []string{".jpg", ".JPEG"} {
		for _, a := range encodeAttempts(ext) {
			if a.Format == "jpeg" && a.Quality != 95 {
				t.Errorf("jpeg quality for %s source = %d, want 95", ext, a.Quality)
			}
			if a.Format == "avif" && a.Quality != 50 {
				t.Errorf("avif quality for %s source = %d, want 50", ext, a.Quality)
			}
		}
	}
}

func TestProcessSkipMarkers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "team-logo.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0644); err != nil {
		t.Fatal(err)
	}

	p := NewProcessor()
	res := p.Process(path)
	if !res.Skipped {
		t.Error("expected skip for filename containing a marker")
	}
	if res.Changed {
		t.Error("skipped file reported as changed")
	}
	if res.Path != path {
		t.Errorf("path = %q, want original %q", res.Path, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("original file missing after skip: %v", err)
	}
}

func TestProcessFailsOpenOnUnreadableImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(path, []byte("definitely not a jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	p := NewProcessor()
	res := p.Process(path)
	if res.Changed {
		t.Error("unreadable image reported as changed")
	}
	if res.Path != path {
		t.Errorf("path = %q, want original %q", res.Path, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("original file missing after failed processing: %v", err)
	}
}

func TestReplaceFileRemovesSuperseded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(src, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	newPath, err := replaceFile(src, ".avif", []byte("new"))
	if err != nil {
		t.Fatalf("replaceFile: %v", err)
	}
	if newPath != filepath.Join(dir, "photo.avif") {
		t.Errorf("newPath = %q", newPath)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("superseded source file still exists")
	}
	data, err := os.ReadFile(newPath)
	if err != nil || string(data) != "new" {
		t.Errorf("converted file content = %q, err %v", data, err)
	}
}

func TestReplaceFileSameExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(src, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	newPath, err := replaceFile(src, ".jpg", []byte("new"))
	if err != nil {
		t.Fatalf("replaceFile: %v", err)
	}
	if newPath != src {
		t.Errorf("newPath = %q, want %q", newPath, src)
	}
	data, err := os.ReadFile(src)
	if err != nil || string(data) != "new" {
		t.Errorf("file content = %q, err %v", data, err)
	}
}
