package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sokoni/marketplace-api/internal/core/ports"
)

// ProductHandler handles HTTP requests for listing operations.
type ProductHandler struct {
	service ports.ProductService
}

func NewProductHandler(service ports.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List handles GET /products. Open endpoint; supports ?category= (exact)
// and ?q= (title substring) filters.
//
// @Summary      List all listings
// @Tags         products
// @Produce      json
// @Param        category  query     string  false  "Exact category filter"
// @Param        q         query     string  false  "Title substring filter"
// @Success      200       {array}   domain.Product
// @Failure      500       {object}  map[string]string
// @Router       /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.service.List(c.Request().Context(), ports.ProductFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("q"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// Get handles GET /products/:id. Open endpoint.
//
// @Summary      Get a listing by id
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// Create handles POST /products (multipart, authenticated).
//
// @Summary      Publish a new listing
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  createProductResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Price binds through a float64, so an absent field is indistinguishable
	// from a legitimate 0 after binding. Check presence on the raw form; 0
	// itself stays valid.
	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if _, ok := params["price"]; !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "price is required")
	}

	image, err := imageFromForm(c)
	if err != nil {
		return err
	}

	product, err := h.service.Create(c.Request().Context(), identity, ports.CreateProductInput{
		Title:         req.Title,
		Price:         req.Price,
		Category:      req.Category,
		Description:   req.Description,
		ContactNumber: req.ContactNumber,
		Location:      req.Location,
		Image:         image,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, createProductResponse{Product: product})
}

// Update handles PUT /products/:id (multipart, authenticated). Partial
// semantics: only fields present in the form are changed; a new image file
// replaces the old blob.
//
// @Summary      Update a listing
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  domain.Product
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	input, err := updateInputFromForm(c)
	if err != nil {
		return err
	}

	product, err := h.service.Update(c.Request().Context(), identity, c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// ToggleSold handles PUT /products/:id/sold (authenticated): flips the sold
// flag without touching any other field.
//
// @Summary      Toggle the sold flag on a listing
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  map[string]string
// @Router       /products/{id}/sold [put]
func (h *ProductHandler) ToggleSold(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	product, err := h.service.MarkSold(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// Delete handles DELETE /products/:id (authenticated).
//
// @Summary      Delete a listing
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), identity, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// imageFromForm reads the optional "image" multipart file. A missing file
// or a non-multipart body simply means no image was attached.
func imageFromForm(c echo.Context) (*ports.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable image upload")
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable image upload")
	}

	return &ports.ImageUpload{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

// updateInputFromForm builds a partial-update input from whichever form
// fields are actually present, preserving the absent-vs-empty distinction
// that pointer fields encode.
func updateInputFromForm(c echo.Context) (ports.UpdateProductInput, error) {
	var input ports.UpdateProductInput

	params, err := c.FormParams()
	if err != nil {
		return input, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if vs, ok := params["title"]; ok && len(vs) > 0 {
		input.Title = &vs[0]
	}
	if vs, ok := params["category"]; ok && len(vs) > 0 {
		input.Category = &vs[0]
	}
	if vs, ok := params["description"]; ok && len(vs) > 0 {
		input.Description = &vs[0]
	}
	if vs, ok := params["contact_number"]; ok && len(vs) > 0 {
		input.ContactNumber = &vs[0]
	}
	if vs, ok := params["location"]; ok && len(vs) > 0 {
		input.Location = &vs[0]
	}
	if vs, ok := params["price"]; ok && len(vs) > 0 {
		price, err := strconv.ParseFloat(vs[0], 64)
		if err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "price must be a number")
		}
		input.Price = &price
	}
	if vs, ok := params["sold"]; ok && len(vs) > 0 {
		sold, err := strconv.ParseBool(vs[0])
		if err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "sold must be a boolean")
		}
		input.Sold = &sold
	}

	image, err := imageFromForm(c)
	if err != nil {
		return input, err
	}
	input.Image = image

	return input, nil
}
