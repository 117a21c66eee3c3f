package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Storage keeps uploaded media on an afero filesystem and turns stored
// names into public URLs under mediaURL.
type Storage struct {
	fs       afero.Fs
	mediaURL string
}

func New(fs afero.Fs, mediaURL string) *Storage {
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return &Storage{fs: fs, mediaURL: mediaURL}
}

// NewLocal stores files below root on the local disk.
func NewLocal(root, mediaURL string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), mediaURL), nil
}

// RandomName returns "<uuid hex>.<ext>", ext being the text after the last
// dot of original, or all of it when there is no dot.
func RandomName(original string) string {
	ext := original[strings.LastIndex(original, ".")+1:]
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
}

// ShoeImagePath 鞋款图片: shoes/<shoe id>/<random><ext>
func ShoeImagePath(shoeID uint, original string) string {
	return path.Join("shoes", fmt.Sprint(shoeID), RandomName(original))
}

// BrandLogoPath 品牌 Logo: brands/<random><ext>
func BrandLogoPath(original string) string {
	return path.Join("brands", RandomName(original))
}

// rooted 统一成 "/" 开头的路径, 与 HTTPFileSystem 打开文件的方式一致
func rooted(name string) string {
	return path.Join("/", name)
}

func (s *Storage) Save(name string, r io.Reader) error {
	name = rooted(name)
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(name)
		return err
	}
	return f.Close()
}

func (s *Storage) Open(name string) (afero.File, error) {
	return s.fs.Open(rooted(name))
}

// Delete removes name; a missing file is not an error.
func (s *Storage) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := s.fs.Remove(rooted(name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Storage) Exists(name string) bool {
	ok, err := afero.Exists(s.fs, rooted(name))
	return err == nil && ok
}

// URL returns the site-relative URL of a stored file.
func (s *Storage) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.mediaURL + strings.TrimPrefix(name, "/")
}

func (s *Storage) MediaURL() string {
	return s.mediaURL
}

// HTTPFileSystem exposes the stored files for gin's StaticFS.
func (s *Storage) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir("/")
}
