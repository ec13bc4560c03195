package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/middleware"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/models"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/repository"
)

const (
	listPath    = "/alimentos"
	addItemPath = "/add-alimento"
)

var ratingValues = []int{1, 2, 3, 4, 5}

// itemForm mirrors the add-item form fields.
type itemForm struct {
	Name        string `form:"nome"`
	Quantity    string `form:"quantidade"`
	Description string `form:"descricao"`
	Value       string `form:"valor"`
	Supplier    string `form:"fornecedor"`
	Email       string `form:"email"`
	Phone       string `form:"telefone"`
	Address     string `form:"address"`
	Latitude    string `form:"latitude"`
	Longitude   string `form:"longitude"`
}

type ratingForm struct {
	ItemID string `form:"alimentoId"`
	Value  string `form:"ratingValue"`
}

// itemView is what the list page shows for one item.
type itemView struct {
	ID            uint
	Name          string
	Quantity      string
	Description   string
	Value         string
	Supplier      string
	ContactEmail  string
	ContactPhone  string
	Address       string
	Latitude      string
	Longitude     string
	HasLocation   bool
	RatingCount   int
	RatingAverage string
}

func newItemView(item models.FoodItem) itemView {
	v := itemView{
		ID:           item.ID,
		Name:         item.Name,
		Quantity:     item.Quantity,
		Description:  item.Description,
		Supplier:     item.Supplier,
		ContactEmail: item.ContactEmail,
		ContactPhone: item.ContactPhone,
		Address:      item.Address,
		HasLocation:  item.Latitude.Valid && item.Longitude.Valid,
		RatingCount:  len(item.Ratings),
	}
	if item.Value.Valid {
		v.Value = item.Value.Decimal.StringFixed(2)
	}
	if v.HasLocation {
		v.Latitude = item.Latitude.Decimal.String()
		v.Longitude = item.Longitude.Decimal.String()
	}
	if len(item.Ratings) > 0 {
		sum := 0
		for _, r := range item.Ratings {
			sum += r.Value
		}
		v.RatingAverage = decimal.NewFromInt(int64(sum)).
			Div(decimal.NewFromInt(int64(len(item.Ratings)))).
			StringFixed(1)
	}
	return v
}

// ListItems shows every item together with its ratings.
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.Catalog.ListItems(c.Request.Context(), repository.WithRatings())
	if err != nil {
		h.serverError(c, err, "failed to list items")
		return
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item))
	}
	h.Log.WithField("count", len(views)).Debug("listed items")

	h.render(c, http.StatusOK, "alimentos.html", "Alimentos disponíveis", gin.H{
		"items":        views,
		"ratingValues": ratingValues,
	})
}

func (h *Handler) NewItemForm(c *gin.Context) {
	h.render(c, http.StatusOK, "add-alimento.html", "Adicionar Novo Alimento", nil)
}

// CreateItem stores the submitted item and goes back to the list.
func (h *Handler) CreateItem(c *gin.Context) {
	var form itemForm
	if err := c.ShouldBind(&form); err != nil {
		h.Log.WithError(err).Warn("invalid add-item form")
		h.redirect(c, addItemPath)
		return
	}

	item, err := form.toModel()
	if err != nil {
		h.Log.WithError(err).Warn("invalid add-item form")
		h.redirect(c, addItemPath)
		return
	}

	if err := h.Catalog.CreateItem(c.Request.Context(), item); err != nil {
		h.logFailure(err, "failed to create item")
		h.redirect(c, addItemPath)
		return
	}

	h.Log.WithFields(logrus.Fields{"item_id": item.ID, "user_id": c.GetUint(middleware.UserIDKey)}).Info("item created")
	h.redirect(c, listPath)
}

// DeleteItem removes an item and its ratings. Unknown ids are a no-op.
func (h *Handler) DeleteItem(c *gin.Context) {
	id, err := h.parseID(c.Param("id"))
	if err != nil {
		h.Log.WithField("id", c.Param("id")).Warn("invalid item id for delete")
		h.redirect(c, listPath)
		return
	}

	err = h.Catalog.DeleteItem(c.Request.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.Log.WithField("item_id", id).Info("item to delete not found")
	case err != nil:
		h.Log.WithError(err).WithField("item_id", id).Error("failed to delete item")
	default:
		h.Log.WithFields(logrus.Fields{"item_id": id, "user_id": c.GetUint(middleware.UserIDKey)}).Info("item deleted")
	}
	h.redirect(c, listPath)
}

// RateItem stores a 1..5 rating for an existing item.
func (h *Handler) RateItem(c *gin.Context) {
	var form ratingForm
	if err := c.ShouldBind(&form); err != nil {
		h.Log.WithError(err).Warn("invalid rating form")
		h.redirect(c, listPath)
		return
	}

	itemID, err := h.parseID(strings.TrimSpace(form.ItemID))
	if err != nil || itemID == 0 {
		h.Log.WithField("alimentoId", form.ItemID).Warn("rating rejected: invalid item id")
		h.redirect(c, listPath)
		return
	}
	value, err := strconv.Atoi(strings.TrimSpace(form.Value))
	if err != nil || value < repository.MinRating || value > repository.MaxRating {
		h.Log.WithField("ratingValue", form.Value).Warn("rating rejected: invalid value")
		h.redirect(c, listPath)
		return
	}

	rating, err := h.Catalog.CreateRating(c.Request.Context(), itemID, value)
	if err != nil {
		h.logFailure(err, "failed to save rating")
		h.redirect(c, listPath)
		return
	}

	h.Log.WithFields(logrus.Fields{"rating_id": rating.ID, "item_id": itemID, "value": value}).Info("rating saved")
	h.redirect(c, listPath)
}

// logFailure logs expected rejections as warnings and everything else as errors.
func (h *Handler) logFailure(err error, msg string) {
	entry := h.Log.WithError(err)
	if errors.Is(err, repository.ErrValidation) || errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDuplicate) {
		entry.Warn(msg)
		return
	}
	entry.Error(msg)
}

func (f itemForm) toModel() (*models.FoodItem, error) {
	value, err := parseDecimal("valor", f.Value)
	if err != nil {
		return nil, err
	}
	lat, err := parseDecimal("latitude", f.Latitude)
	if err != nil {
		return nil, err
	}
	lng, err := parseDecimal("longitude", f.Longitude)
	if err != nil {
		return nil, err
	}

	return &models.FoodItem{
		Name:         f.Name,
		Quantity:     f.Quantity,
		Description:  f.Description,
		Value:        value,
		Supplier:     f.Supplier,
		ContactEmail: f.Email,
		ContactPhone: f.Phone,
		Address:      f.Address,
		Latitude:     lat,
		Longitude:    lng,
	}, nil
}

// parseDecimal treats an empty field as absent and accepts a decimal comma.
func parseDecimal(field, raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: field %s is not a number", repository.ErrValidation, field)
	}
	return decimal.NewNullDecimal(d), nil
}
