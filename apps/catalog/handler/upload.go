package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"sneaker-catalog/apps/catalog/errs"

	"github.com/gabriel-vasile/mimetype"
)

const msgNotImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// saveImage sniffs fh and stores it as name when it is an image; field
// names the form field in the validation error.
func (h *Handler) saveImage(field string, fh *multipart.FileHeader, name string) error {
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("sniff upload %s: %w", fh.Filename, err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return errs.Field(field, msgNotImage)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload %s: %w", fh.Filename, err)
	}
	if err := h.Storage.Save(name, f); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

// formFile returns the first file sent under key, if the body was multipart.
func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if form == nil || len(form.File[key]) == 0 {
		return nil
	}
	return form.File[key][0]
}
