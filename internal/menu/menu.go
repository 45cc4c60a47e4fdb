// Package menu loads photographed or scanned sake menus for analysis.
package menu

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/jeanpaul/sakemate/internal/logging"
)

// DefaultMaxBytes matches the inline payload limit of the Gemini API.
const DefaultMaxBytes = 20 << 20

var (
	ErrEmpty            = errors.New("menu document is empty")
	ErrTooLarge         = errors.New("menu document is too large")
	ErrUnsupportedMedia = errors.New("unsupported menu document type")
)

var supported = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

// Image is a menu ready to be attached to a model request.
type Image struct {
	MIMEType string
	Data     []byte
	// Text is the text layer of PDF menus, empty for photos.
	Text string
}

// FromBytes sniffs the media type of data and, for PDFs, extracts text.
// maxBytes <= 0 means DefaultMaxBytes.
func FromBytes(data []byte, maxBytes int64) (Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) == 0 {
		return Image{}, ErrEmpty
	}
	if int64(len(data)) > maxBytes {
		return Image{}, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), maxBytes)
	}

	mt, ok := sniff(data)
	if !ok {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mt)
	}

	img := Image{MIMEType: mt, Data: data}
	if mt == "application/pdf" {
		text, err := pdfText(data)
		if err != nil {
			// the model can still read the PDF itself
			logging.Warn().Err(err).Msg("could not extract text from PDF menu")
		}
		img.Text = text
	}
	return img, nil
}

// sniff returns the detected media type, walking up to a supported parent
// type (APNG is sent as PNG).
func sniff(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if supported[m.String()] {
			return m.String(), true
		}
	}
	return detected.String(), false
}

// Load reads a menu document from disk.
func Load(path string, maxBytes int64) (Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Image{}, err
	}
	if fi.Size() > maxBytes {
		return Image{}, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, path, fi.Size(), maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, err
	}
	img, err := FromBytes(data, maxBytes)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Glob expands pattern (with ** support) to the files it names, sorted. A
// pattern without wildcards is returned as-is so a missing file surfaces as
// a read error later.
func Glob(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	matches, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(base, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

func pdfText(data []byte) (text string, err error) {
	// the pdf package panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pt, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pt = strings.ReplaceAll(pt, "\r\n", "\n")
		pt = strings.ReplaceAll(pt, "\x00", "")
		if t := strings.TrimSpace(pt); t != "" {
			sb.WriteString(t)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
