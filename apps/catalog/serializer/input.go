package serializer

import (
	"sneaker-catalog/apps/catalog/model"
)

// DecodeShoe applies a write body onto shoe. partial (PATCH) skips the
// required field check; PUT and POST enforce brand, model and colorway.
// Server managed fields (id, created_by, timestamps) are ignored.
func DecodeShoe(f Fields, shoe *model.Shoe, partial bool) error {
	r := newReader(f)
	if !partial {
		r.require("brand", "model", "colorway")
	}

	category := string(shoe.Category)
	sizeSystem := string(shoe.SizeSystem)

	r.PK("brand", &shoe.BrandID)
	r.String("model", &shoe.Model)
	r.String("version", &shoe.Version)
	r.String("colorway", &shoe.Colorway)
	r.String("category", &category)
	r.NullableInt("release_year", &shoe.ReleaseYear)
	r.Decimal("retail_price", &shoe.RetailPrice, 10, 2)
	r.String("currency", &shoe.Currency)
	r.String("size_system", &sizeSystem)
	r.List("available_sizes", &shoe.AvailableSizes, "尺码必须是列表格式")
	r.String("description", &shoe.Description)
	r.List("features", &shoe.Features, "特性必须是列表格式")
	r.String("materials", &shoe.Materials)
	r.NullableUint("weight", &shoe.Weight)
	r.Decimal("heel_height", &shoe.HeelHeight, 4, 1)
	r.String("sku", &shoe.SKU)
	r.Uint("stock_quantity", &shoe.StockQuantity)
	r.Bool("is_active", &shoe.IsActive)
	r.Bool("is_limited", &shoe.IsLimited)

	shoe.Category = model.Category(category)
	shoe.SizeSystem = model.SizeSystem(sizeSystem)

	r.check(shoeRules{
		Model:       shoe.Model,
		Version:     shoe.Version,
		Colorway:    shoe.Colorway,
		Category:    category,
		ReleaseYear: shoe.ReleaseYear,
		Currency:    shoe.Currency,
		SizeSystem:  sizeSystem,
		SKU:         shoe.SKU,
	})
	return r.err()
}

// DecodeBrand applies the text fields of a brand body. The logo is a file
// and handled by the caller.
func DecodeBrand(f Fields, b *model.Brand, partial bool) error {
	r := newReader(f)
	if !partial {
		r.require("name")
	}
	r.String("name", &b.Name)
	r.String("name_en", &b.NameEn)
	r.String("description", &b.Description)
	r.String("website", &b.Website)
	r.check(brandRules{Name: b.Name, NameEn: b.NameEn, Website: b.Website})
	return r.err()
}

// DecodeImage applies an image update (alt_text, is_primary, order).
func DecodeImage(f Fields, img *model.ShoeImage) error {
	r := newReader(f)
	r.String("alt_text", &img.AltText)
	r.Bool("is_primary", &img.IsPrimary)
	r.Uint("order", &img.Order)
	r.check(imageRules{AltText: img.AltText})
	return r.err()
}

// CheckAltText validates an alt text given outside a JSON body.
func CheckAltText(alt string) error {
	r := newReader(Fields{})
	r.check(imageRules{AltText: alt})
	return r.err()
}

// ImageID reads the image_id of a delete request; numbers and numeric
// strings are accepted.
func ImageID(f Fields) (uint, bool) {
	r := newReader(f)
	v, ok := r.value("image_id")
	if !ok {
		return 0, false
	}
	i, ok := toInt(v)
	if !ok || i <= 0 {
		return 0, false
	}
	return uint(i), true
}
