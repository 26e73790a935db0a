package handlers

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"member-admin-api/internal/services"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// ProfilePictureField is the multipart field carrying a member photo.
	ProfilePictureField = "profile_picture"
	profilePicDir       = "profile_pics"
)

// allowedImageTypes maps accepted extensions to the content type the file must sniff as.
var allowedImageTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// ImageStore saves profile pictures under <root>/profile_pics with generated names.
type ImageStore struct {
	root     string
	maxBytes int64
}

// NewImageStore creates an ImageStore rooted at the public upload directory.
func NewImageStore(root string, maxBytes int64) *ImageStore {
	return &ImageStore{root: root, maxBytes: maxBytes}
}

// SaveFromRequest stores the profile_picture part of a multipart request and returns
// its public relative path. It returns "" when the request carries no picture.
func (s *ImageStore) SaveFromRequest(c *fiber.Ctx) (string, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return "", nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return "", fmt.Errorf("%w: malformed multipart body", services.ErrValidation)
	}
	files := form.File[ProfilePictureField]
	if len(files) == 0 {
		return "", nil
	}
	fh := files[0]
	if fh.Size > s.maxBytes {
		return "", fmt.Errorf("%w: profile picture exceeds %d bytes", services.ErrValidation, s.maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowedImageTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: only jpeg, jpg, png and gif images are allowed", services.ErrValidation)
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	detected, err := mimetype.DetectReader(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("failed to inspect uploaded file: %w", err)
	}
	if !detected.Is(want) {
		return "", fmt.Errorf("%w: file content is %s, not %s", services.ErrValidation, detected.String(), want)
	}

	dir := filepath.Join(s.root, profilePicDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure upload directory exists: %w", err)
	}
	name := uuid.NewString() + ext
	if err := c.SaveFile(fh, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to save uploaded file: %w", err)
	}
	return path.Join(profilePicDir, name), nil
}

// Remove deletes a file previously returned by SaveFromRequest.
func (s *ImageStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	return os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
}
