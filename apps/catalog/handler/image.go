package handler

import (
	"errors"
	"fmt"
	"net/http"

	"sneaker-catalog/apps/catalog/errs"
	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/serializer"
	"sneaker-catalog/pkg/response"
	"sneaker-catalog/pkg/storage"

	"github.com/gin-gonic/gin"
)

// ResUploadImages is the rate limited resource of the upload endpoint.
const ResUploadImages = "upload_images"

const (
	msgNoImages      = "请选择要上传的图片"
	msgImageNotFound = "图片不存在"
	msgImageDeleted  = "图片删除成功"
)

type imageEvent struct {
	ShoeID   uint   `json:"shoe_id"`
	ImageIDs []uint `json:"image_ids"`
}

// UploadImages POST /api/shoes/:id/upload_images/ 批量上传, 字段名 images
func (h *Handler) UploadImages(c *gin.Context) {
	ctx := c.Request.Context()
	shoeID, err := id(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	shoe, err := h.Shoes.Get(ctx, shoeID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize)
	if err := c.Request.ParseMultipartForm(h.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		h.fail(c, errs.BadRequest("Multipart form parse error - "+err.Error()))
		return
	}
	form := c.Request.MultipartForm
	if form == nil || len(form.File["images"]) == 0 {
		response.Error(c, http.StatusBadRequest, msgNoImages)
		return
	}

	// 未传 alt_text 时使用 "<鞋款> 图片 <n>"
	altText, hasAlt := "", false
	if vs := form.Value["alt_text"]; len(vs) > 0 {
		// 重复字段取最后一个值
		altText, hasAlt = vs[len(vs)-1], true
		if err := serializer.CheckAltText(altText); err != nil {
			h.fail(c, err)
			return
		}
	}

	files := form.File["images"]
	images := make([]*model.ShoeImage, 0, len(files))
	saved := make([]string, 0, len(files))
	for idx, fh := range files {
		name := storage.ShoeImagePath(shoe.ID, fh.Filename)
		if err := h.saveImage("images", fh, name); err != nil {
			h.removeFiles(saved...)
			h.fail(c, err)
			return
		}
		saved = append(saved, name)

		alt := altText
		if !hasAlt {
			alt = model.DefaultAltText(*shoe, idx+1)
		}
		images = append(images, &model.ShoeImage{Image: name, AltText: alt, Order: uint(idx)})
	}
	if err := h.Images.CreateBatch(ctx, shoe.ID, images); err != nil {
		h.removeFiles(saved...)
		h.fail(c, err)
		return
	}

	l := h.linker(c)
	out := make([]serializer.ImageOut, len(images))
	ids := make([]uint, len(images))
	for i, img := range images {
		out[i] = serializer.NewImageOut(*img, l)
		ids[i] = img.ID
	}
	h.touchShoe(ctx, shoe.ID)
	h.publish(ctx, "shoe.images_uploaded", imageEvent{ShoeID: shoe.ID, ImageIDs: ids})
	response.Message(c, fmt.Sprintf("成功上传 %d 张图片", len(out)), gin.H{
		"count":  len(out),
		"images": out,
	})
}

// DeleteImage DELETE /api/shoes/:id/delete_image/ body {"image_id": n}
func (h *Handler) DeleteImage(c *gin.Context) {
	ctx := c.Request.Context()
	shoeID, err := id(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.Shoes.Get(ctx, shoeID); err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.body(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	imageID, ok := serializer.ImageID(f)
	if !ok {
		response.Error(c, http.StatusNotFound, msgImageNotFound)
		return
	}
	img, err := h.Images.Delete(ctx, shoeID, imageID)
	if errors.Is(err, errs.ErrNotFound) {
		response.Error(c, http.StatusNotFound, msgImageNotFound)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	h.removeFiles(img.Image)
	h.touchShoe(ctx, shoeID)
	h.publish(ctx, "shoe.image_deleted", imageEvent{ShoeID: shoeID, ImageIDs: []uint{imageID}})
	response.Message(c, msgImageDeleted, nil)
}

// UpdateImage PATCH /api/shoes/:id/images/:image_id/ 修改描述、主图和排序
func (h *Handler) UpdateImage(c *gin.Context) {
	ctx := c.Request.Context()
	shoeID, err := id(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	imageID, err := id(c, "image_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	img, err := h.Images.Get(ctx, shoeID, imageID)
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.body(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := serializer.DecodeImage(f, img); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Images.Save(ctx, img); err != nil {
		h.fail(c, err)
		return
	}

	h.touchShoe(ctx, shoeID)
	h.publish(ctx, "shoe.image_updated", imageEvent{ShoeID: shoeID, ImageIDs: []uint{img.ID}})
	response.Success(c, serializer.NewImageOut(*img, h.linker(c)))
}
