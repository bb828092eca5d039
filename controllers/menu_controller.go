package controllers

import (
	"net/http"
	"time"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
)

// MenuController serves the public, read-only menu.
type MenuController struct {
	Menu         *services.MenuService
	exposeDetail bool
}

func NewMenuController(menu *services.MenuService, exposeDetail bool) *MenuController {
	return &MenuController{Menu: menu, exposeDetail: exposeDetail}
}

func (mc *MenuController) GetMenu(c *gin.Context) {
	menu, err := mc.Menu.Menu(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, mc.exposeDetail)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": menu.Categorias,
		"meta": gin.H{
			"total_categorias": menu.TotalCategorias,
			"total_pratos":     menu.TotalPratos,
		},
		"timestamp": time.Now(),
	})
}

func (mc *MenuController) GetCategories(c *gin.Context) {
	categories, err := mc.Menu.AvailableCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, mc.exposeDetail)
		return
	}
	respondData(c, http.StatusOK, categories)
}

func (mc *MenuController) GetDishesByCategory(c *gin.Context) {
	category, dishes, err := mc.Menu.DishesByCategoryName(c.Request.Context(), c.Param("nome"))
	if err != nil {
		respondServiceError(c, err, mc.exposeDetail)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": dishes,
		"meta": gin.H{
			"categoria":    category.Nome,
			"id_categoria": category.ID,
			"total_pratos": len(dishes),
		},
		"timestamp": time.Now(),
	})
}

// GetDish answers 404 for dishes that exist but are unavailable.
func (mc *MenuController) GetDish(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	dish, err := mc.Menu.AvailableDish(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, mc.exposeDetail)
		return
	}
	respondData(c, http.StatusOK, dish)
}
