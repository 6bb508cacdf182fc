// Package zip assembles download archives from in-memory image assets.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

type Asset struct {
	Name string
	MIME string
	Data []byte
}

// Archive packs assets into a zip, fixing up missing extensions from the
// MIME type and deduplicating colliding names.
func Archive(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int, len(assets))
	for i, asset := range assets {
		name := entryName(asset, i)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext(name)), n, ext(name))
		} else {
			seen[name] = 1
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func entryName(asset Asset, i int) string {
	name := asset.Name
	if name == "" {
		name = fmt.Sprintf("image_%d", i)
	}
	if ext(name) == "" {
		name += extensionForMIME(asset.MIME)
	}
	return name
}

func ext(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpeg"
	}
}
