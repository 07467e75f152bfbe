// Package source loads the images that image elements reference and turns
// PDFs or image folders into decks.
package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultDPI is the resolution PDF pages are rasterised at.
const DefaultDPI = 150

// maxRemoteSize caps downloaded images.
const maxRemoteSize = 64 << 20

// Loader resolves an asset reference to a decoded image. References are
// data: URIs, http(s) URLs, "file.pdf#page=N" or file paths; relative paths
// resolve against BaseDir.
type Loader struct {
	BaseDir string
	DPI     int
	Client  *http.Client
}

func NewLoader(baseDir string) *Loader {
	return &Loader{
		BaseDir: baseDir,
		DPI:     DefaultDPI,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		data, err := decodeDataURI(src)
		if err != nil {
			return nil, err
		}
		return decodeBytes(data)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetch(ctx, src)
	}

	path, page, isPDF := splitPDFRef(src)
	path = l.resolve(path)
	if isPDF {
		dpi := l.DPI
		if dpi <= 0 {
			dpi = DefaultDPI
		}
		return renderPDFPage(path, page-1, dpi)
	}
	return decodeFile(path)
}

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) || l.BaseDir == "" {
		return path
	}
	return filepath.Join(l.BaseDir, path)
}

func (l *Loader) fetch(ctx context.Context, src string) (image.Image, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxRemoteSize))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	return img, nil
}

// splitPDFRef recognises "doc.pdf" and "doc.pdf#page=N". Pages are 1-based;
// a bare PDF path means page 1.
func splitPDFRef(src string) (path string, page int, ok bool) {
	path, frag, _ := strings.Cut(src, "#")
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return src, 0, false
	}
	page = 1
	if v, found := strings.CutPrefix(frag, "page="); found {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	return path, page, true
}

// decodeDataURI returns the payload of "data:[<mime>][;base64],<data>".
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data uri: %w", err)
	}
	return []byte(s), nil
}

func decodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
