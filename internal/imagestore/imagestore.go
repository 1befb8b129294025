package imagestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/disk"
)

// RecipesDir is the sub directory recipe images are stored in.
const RecipesDir = "recipes"

// MaxImageBytes is the largest decoded image accepted.
const MaxImageBytes = 10 << 20

// ErrInvalidImage is returned when an upload is not a decodable base64 image.
var ErrInvalidImage = errors.New("invalid image")

// Store writes uploaded images below a media directory.
type Store struct {
	dir       string
	maxWidth  int // Maximum width for stored images, 0 disables scaling
	maxHeight int // Maximum height for stored images, 0 disables scaling
	quality   int // JPEG quality (1-100)
}

// New creates the image store and its directory layout.
func New(dir string, maxWidth, maxHeight int) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, RecipesDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Store{
		dir:       dir,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   85,
	}, nil
}

// Dir returns the media root directory.
func (s *Store) Dir() string {
	return s.dir
}

// SaveDataURI decodes a "data:image/<type>;base64,<payload>" string, scales the
// image down to the configured bounds and stores it. The returned reference is
// relative to the media root and uses forward slashes.
func (s *Store) SaveDataURI(dataURI string) (string, error) {
	img, format, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	if s.maxWidth > 0 && s.maxHeight > 0 && (bounds.Dx() > s.maxWidth || bounds.Dy() > s.maxHeight) {
		img = imaging.Fit(img, s.maxWidth, s.maxHeight, imaging.Lanczos)
		log.Debugf("Resized image from %dx%d to %dx%d",
			bounds.Dx(), bounds.Dy(), img.Bounds().Dx(), img.Bounds().Dy())
	}

	name := uuid.NewString() + extensionFor(format)
	finalPath := filepath.Join(s.dir, RecipesDir, name)
	tempPath := filepath.Join(s.dir, RecipesDir, "tmp_"+name)
	defer os.Remove(tempPath) // no-op after a successful rename

	if err := s.saveImage(img, tempPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to move temp file: %w", err)
	}

	return RecipesDir + "/" + name, nil
}

// Delete removes a stored image. Missing files and references outside the
// media root are ignored.
func (s *Store) Delete(ref string) error {
	path, ok := s.resolve(ref)
	if !ok {
		log.Warn("refusing to delete image outside media directory", "ref", ref)
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Size returns the total size in bytes of the files below the media root.
func (s *Store) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// Prune removes recipe images that are not listed in keep. Files modified
// within grace are left alone, they may belong to a recipe that is still
// being written. Leftover temp files are removed the same way.
func (s *Store) Prune(keep []string, grace time.Duration) (int, error) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, ref := range keep {
		keepSet[ref] = struct{}{}
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, RecipesDir))
	if err != nil {
		return 0, fmt.Errorf("failed to list images: %w", err)
	}

	cutoff := time.Now().Add(-grace)
	var removed int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ref := RecipesDir + "/" + e.Name()
		if _, ok := keepSet[ref]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := s.Delete(ref); err != nil {
			return removed, err
		}
		log.Debug("removed orphaned image", "ref", ref)
		removed++
	}
	return removed, nil
}

// DiskUsage reports the usage of the volume the media root lives on.
func (s *Store) DiskUsage(ctx context.Context) (*disk.UsageStat, error) {
	usage, err := disk.UsageWithContext(ctx, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk usage: %w", err)
	}
	return usage, nil
}

func (s *Store) resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	path := filepath.Join(s.dir, filepath.FromSlash(ref))
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return path, true
}

func (s *Store) saveImage(img image.Image, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(s.quality))
	case ".png":
		return imaging.Save(img, path, imaging.PNGCompressionLevel(6))
	default:
		return imaging.Save(img, path)
	}
}

func decodeDataURI(dataURI string) (image.Image, string, error) {
	header, payload, found := strings.Cut(strings.TrimSpace(dataURI), ",")
	if !found || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, format, nil
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "bmp":
		return ".bmp"
	case "tiff":
		return ".tif"
	default:
		return ".png"
	}
}
