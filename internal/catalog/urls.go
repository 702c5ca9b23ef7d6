package catalog

import (
	"strconv"
	"strings"
)

// ImageURL builds a product image URL. PrestaShop stores image 123 under
// 1/2/3/123.jpg.
func ImageURL(base string, imageID int64) string {
	if imageID <= 0 {
		return ""
	}
	id := strconv.FormatInt(imageID, 10)
	var b strings.Builder
	b.WriteString(base)
	for _, r := range id {
		b.WriteRune(r)
		b.WriteByte('/')
	}
	b.WriteString(id)
	b.WriteString(".jpg")
	return b.String()
}

// ProductURL expands {id_product} in template.
func ProductURL(template string, productID int64) string {
	return strings.ReplaceAll(template, "{id_product}", strconv.FormatInt(productID, 10))
}

// CategoryURL expands {id_category} in template.
func CategoryURL(template string, categoryID int64) string {
	return strings.ReplaceAll(template, "{id_category}", strconv.FormatInt(categoryID, 10))
}
