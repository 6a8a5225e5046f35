// Package files stores uploaded content on the local filesystem under the
// configured uploads directory, one subdirectory per folder (users, courses,
// sections).
package files

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
)

const (
	maxImageSize = 3 << 20 // 3MB

	dirPerm  = 0o755
	filePerm = 0o644
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var (
	ErrFileTooLarge     = errors.New("file too large. Max 3MB allowed")
	ErrInvalidImageType = errors.New("only JPEG, JPG, PNG, WEBP formats allowed")
)

type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

// GenerateName builds a unique stored name keeping the original extension.
func GenerateName(original string) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + hex.EncodeToString(buf) + filepath.Ext(original)
}

// Save writes the uploaded file under <root>/<folder>/ and returns the
// generated name it was stored as.
func (l *Local) Save(folder string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer func() { _ = src.Close() }()

	dir := filepath.Join(l.root, folder)
	if err = os.MkdirAll(dir, dirPerm); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	name := GenerateName(fh.Filename)
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing file")
	}
	return name, nil
}

// SaveImage validates type and size before saving. Used for profile and
// course images.
func (l *Local) SaveImage(folder string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxImageSize {
		return "", core.NewValidationError(ErrFileTooLarge)
	}
	if !imageTypes[fh.Header.Get("Content-Type")] {
		return "", core.NewValidationError(ErrInvalidImageType)
	}
	return l.Save(folder, fh)
}

// Remove deletes a stored file; removal of an absent file is not an error.
func (l *Local) Remove(relPath string) error {
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}
