package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ABFerraz00/mandacafe/middlewares"
	"github.com/ABFerraz00/mandacafe/models"
	"github.com/ABFerraz00/mandacafe/services"
	"github.com/ABFerraz00/mandacafe/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxImageUploadBytes caps the JSON body of an image upload.
const MaxImageUploadBytes = 5 << 20

// AdminController handles dish and category management.
type AdminController struct {
	Menu         *services.MenuService
	Hub          *services.MenuHub
	Images       services.ImageStore
	logger       *zap.Logger
	exposeDetail bool
}

func NewAdminController(menu *services.MenuService, hub *services.MenuHub, images services.ImageStore, logger *zap.Logger, exposeDetail bool) *AdminController {
	return &AdminController{Menu: menu, Hub: hub, Images: images, logger: logger, exposeDetail: exposeDetail}
}

func (ac *AdminController) ListDishes(c *gin.Context) {
	listing, err := ac.Menu.ListDishes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      listing.Pratos,
		"meta":      listing.Stats,
		"timestamp": time.Now(),
	})
}

func (ac *AdminController) GetDish(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	dish, err := ac.Menu.Dish(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}
	respondData(c, http.StatusOK, dish)
}

func (ac *AdminController) CreateDish(c *gin.Context) {
	var input services.CreateDishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dish, err := ac.Menu.CreateDish(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}

	ac.audit(c, "dish created", dish)
	ac.Hub.Publish(services.EventDishCreated, dish)
	c.JSON(http.StatusCreated, gin.H{
		"message":   "dish created",
		"data":      dish,
		"timestamp": time.Now(),
	})
}

func (ac *AdminController) UpdateDish(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.UpdateDishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dish, err := ac.Menu.UpdateDish(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}

	ac.audit(c, "dish updated", dish)
	ac.Hub.Publish(services.EventDishUpdated, dish)
	c.JSON(http.StatusOK, gin.H{
		"message":   "dish updated",
		"data":      dish,
		"timestamp": time.Now(),
	})
}

// ToggleAvailability only accepts {"disponivel": <bool>}; anything else is
// rejected before touching the dish.
func (ac *AdminController) ToggleAvailability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Disponivel json.RawMessage `json:"disponivel"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	var available bool
	switch strings.TrimSpace(string(body.Disponivel)) {
	case "true":
		available = true
	case "false":
	default:
		respondFieldError(c, http.StatusBadRequest, "disponivel", "disponivel: must be a boolean")
		return
	}

	dish, err := ac.Menu.SetAvailability(c.Request.Context(), id, available)
	if err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}

	ac.audit(c, "dish availability changed", dish)
	ac.Hub.Publish(services.EventDishAvailability, dish)
	c.JSON(http.StatusOK, gin.H{
		"message":   "availability updated",
		"data":      dish,
		"timestamp": time.Now(),
	})
}

func (ac *AdminController) ListCategories(c *gin.Context) {
	categories, err := ac.Menu.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}
	respondData(c, http.StatusOK, categories)
}

type imageUploadRequest struct {
	Image string `json:"imagem" binding:"required"`
}

// UploadDishImage stores a data-URL image and points the dish at it.
func (ac *AdminController) UploadDishImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if ac.Images == nil {
		respondError(c, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageUploadBytes)
	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondFieldError(c, http.StatusRequestEntityTooLarge, "imagem", "imagem: exceeds the upload size limit")
			return
		}
		respondFieldError(c, http.StatusBadRequest, "imagem", "imagem: is required")
		return
	}
	img, err := utils.DecodeDataURL(req.Image)
	if err != nil {
		respondFieldError(c, http.StatusBadRequest, "imagem", "imagem: "+err.Error())
		return
	}
	if _, err := ac.Menu.Dish(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}

	url, err := ac.Images.Upload(c.Request.Context(), utils.DishCode(id), img)
	if err != nil {
		respondInternal(c, err, kindUpload, ac.exposeDetail)
		return
	}
	dish, err := ac.Menu.SetImage(c.Request.Context(), id, url)
	if err != nil {
		respondServiceError(c, err, ac.exposeDetail)
		return
	}

	ac.audit(c, "dish image uploaded", dish)
	ac.Hub.Publish(services.EventDishUpdated, dish)
	c.JSON(http.StatusOK, gin.H{
		"message":   "image uploaded",
		"data":      dish,
		"timestamp": time.Now(),
	})
}

func (ac *AdminController) audit(c *gin.Context, msg string, dish *models.Dish) {
	fields := []zap.Field{
		zap.Uint("dish_id", dish.ID),
		zap.String("codigo", dish.Codigo),
		zap.Bool("disponivel", dish.Disponivel),
		zap.String("request_id", middlewares.GetRequestID(c)),
	}
	if identity, ok := middlewares.CurrentIdentity(c); ok {
		fields = append(fields, zap.String("user", identity.Username), zap.String("role", identity.Role))
	}
	ac.logger.Info(msg, fields...)
}
