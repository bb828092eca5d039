package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ABFerraz00/mandacafe/models"
	"github.com/ABFerraz00/mandacafe/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuService is the persistence adapter for categories and dishes.
type MenuService struct {
	db *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{db: db}
}

// MenuCategory is one section of the public menu.
type MenuCategory struct {
	ID            uint          `json:"id"`
	Nome          string        `json:"nome"`
	OrdemExibicao int           `json:"ordem_exibicao"`
	Pratos        []models.Dish `json:"pratos"`
}

type Menu struct {
	Categorias      []MenuCategory `json:"categorias"`
	TotalCategorias int            `json:"total_categorias"`
	TotalPratos     int            `json:"total_pratos"`
}

// CategorySummary is a category plus the number of dishes currently available in it.
type CategorySummary struct {
	ID            uint   `json:"id"`
	Nome          string `json:"nome"`
	OrdemExibicao int    `json:"ordem_exibicao"`
	TotalPratos   int    `json:"total_pratos"`
}

// AdminDish is a dish enriched with its category name.
type AdminDish struct {
	models.Dish
	CategoriaNome string `json:"categoria_nome"`
}

type DishStats struct {
	Total            int `json:"total"`
	Disponiveis      int `json:"disponiveis"`
	Indisponiveis    int `json:"indisponiveis"`
	CategoriasAtivas int `json:"categorias_ativas"`
}

type DishListing struct {
	Pratos []AdminDish `json:"pratos"`
	Stats  DishStats   `json:"estatisticas"`
}

type CreateDishInput struct {
	Nome        string      `json:"nome"`
	Descricao   string      `json:"descricao"`
	Preco       interface{} `json:"preco"`
	CategoriaID *uint       `json:"id_categoria"`
	Disponivel  *bool       `json:"disponivel"`
	TipoItem    string      `json:"tipo_item"`
}

// UpdateDishInput changes only the fields that are non-nil.
type UpdateDishInput struct {
	Nome        *string     `json:"nome"`
	Descricao   *string     `json:"descricao"`
	Preco       interface{} `json:"preco"`
	CategoriaID *uint       `json:"id_categoria"`
	Disponivel  *bool       `json:"disponivel"`
	TipoItem    *string     `json:"tipo_item"`
}

func orderedCategories(db *gorm.DB) *gorm.DB {
	return db.Order("ordem_exibicao ASC").Order("id ASC")
}

// Menu returns categories in display order carrying only available dishes,
// sorted by name. Categories without available dishes are left out.
func (s *MenuService) Menu(ctx context.Context) (*Menu, error) {
	var categories []models.Category
	err := orderedCategories(s.db.WithContext(ctx)).
		Preload("Pratos", func(db *gorm.DB) *gorm.DB {
			return db.Where("disponivel = ?", true).Order("nome ASC").Order("id ASC")
		}).
		Find(&categories).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load menu")
	}

	menu := &Menu{Categorias: []MenuCategory{}}
	for _, c := range categories {
		if len(c.Pratos) == 0 {
			continue
		}
		menu.Categorias = append(menu.Categorias, MenuCategory{
			ID:            c.ID,
			Nome:          c.Nome,
			OrdemExibicao: c.OrdemExibicao,
			Pratos:        c.Pratos,
		})
		menu.TotalPratos += len(c.Pratos)
	}
	menu.TotalCategorias = len(menu.Categorias)
	return menu, nil
}

// AvailableCategories lists categories that have at least one available dish.
func (s *MenuService) AvailableCategories(ctx context.Context) ([]CategorySummary, error) {
	rows := []CategorySummary{}
	err := s.db.WithContext(ctx).
		Table("categorias").
		Select("categorias.id, categorias.nome, categorias.ordem_exibicao, COUNT(pratos.id) AS total_pratos").
		Joins("JOIN pratos ON pratos.id_categoria = categorias.id AND pratos.disponivel = ?", true).
		Group("categorias.id, categorias.nome, categorias.ordem_exibicao").
		Order("categorias.ordem_exibicao ASC, categorias.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	return rows, nil
}

// DishesByCategoryName matches the category name case-insensitively and
// returns its available dishes. ErrCategoryNotFound covers both an unknown
// name and a category with nothing available.
func (s *MenuService) DishesByCategoryName(ctx context.Context, name string) (*models.Category, []models.Dish, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("LOWER(nome) = LOWER(?)", strings.TrimSpace(name)).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to find category")
	}

	var dishes []models.Dish
	err = s.db.WithContext(ctx).
		Where("id_categoria = ? AND disponivel = ?", category.ID, true).
		Order("nome ASC").Order("id ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list dishes")
	}
	if len(dishes) == 0 {
		return nil, nil, ErrCategoryNotFound
	}
	return &category, dishes, nil
}

// AvailableDish is the public lookup: unavailable dishes are hidden.
func (s *MenuService) AvailableDish(ctx context.Context, id uint) (*models.Dish, error) {
	dish, err := s.Dish(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dish.Disponivel {
		return nil, ErrUnavailable
	}
	return dish, nil
}

// Dish returns a dish regardless of availability.
func (s *MenuService) Dish(ctx context.Context, id uint) (*models.Dish, error) {
	var dish models.Dish
	err := s.db.WithContext(ctx).Preload("Categoria").First(&dish, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find dish")
	}
	return &dish, nil
}

func (s *MenuService) ListDishes(ctx context.Context) (*DishListing, error) {
	var dishes []models.Dish
	err := s.db.WithContext(ctx).
		Preload("Categoria").
		Order("id_categoria ASC").Order("nome ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list dishes")
	}

	listing := &DishListing{Pratos: make([]AdminDish, 0, len(dishes))}
	active := make(map[uint]struct{})
	for _, d := range dishes {
		item := AdminDish{Dish: d}
		if d.Categoria != nil {
			item.CategoriaNome = d.Categoria.Nome
		}
		listing.Pratos = append(listing.Pratos, item)

		if d.Disponivel {
			listing.Stats.Disponiveis++
			active[d.CategoriaID] = struct{}{}
		} else {
			listing.Stats.Indisponiveis++
		}
	}
	listing.Stats.Total = len(dishes)
	listing.Stats.CategoriasAtivas = len(active)
	return listing, nil
}

func (s *MenuService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := orderedCategories(s.db.WithContext(ctx)).Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	return categories, nil
}

func (s *MenuService) CreateCategory(ctx context.Context, nome string, ordem int) (*models.Category, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return nil, invalid("nome", "must not be blank")
	}
	category := &models.Category{Nome: nome, OrdemExibicao: ordem}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create category")
	}
	return category, nil
}

// CreateDish validates input, derives the next PRATOxxx code and inserts the dish.
func (s *MenuService) CreateDish(ctx context.Context, in CreateDishInput) (*models.Dish, error) {
	nome := strings.TrimSpace(in.Nome)
	if nome == "" {
		return nil, invalid("nome", "is required")
	}
	descricao := strings.TrimSpace(in.Descricao)
	if descricao == "" {
		return nil, invalid("descricao", "is required")
	}
	if in.Preco == nil {
		return nil, invalid("preco", "is required")
	}
	preco, err := ParsePrice(in.Preco)
	if err != nil {
		return nil, err
	}
	if in.CategoriaID == nil || *in.CategoriaID == 0 {
		return nil, invalid("id_categoria", "is required")
	}
	if err := s.ensureCategory(ctx, *in.CategoriaID); err != nil {
		return nil, err
	}

	nextID, err := s.nextDishID(ctx)
	if err != nil {
		return nil, err
	}

	dish := &models.Dish{
		Codigo:      utils.DishCode(nextID),
		Nome:        nome,
		Descricao:   descricao,
		Preco:       preco,
		Disponivel:  true,
		CategoriaID: *in.CategoriaID,
		TipoItem:    models.DefaultItemType,
	}
	if in.Disponivel != nil {
		dish.Disponivel = *in.Disponivel
	}
	if t := strings.TrimSpace(in.TipoItem); t != "" {
		dish.TipoItem = t
	}

	if err := s.db.WithContext(ctx).Create(dish).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCode
		}
		return nil, errors.Wrap(err, "failed to create dish")
	}
	return s.Dish(ctx, dish.ID)
}

// UpdateDish applies only the fields present in the input.
func (s *MenuService) UpdateDish(ctx context.Context, id uint, in UpdateDishInput) (*models.Dish, error) {
	if _, err := s.Dish(ctx, id); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.Nome != nil {
		nome := strings.TrimSpace(*in.Nome)
		if nome == "" {
			return nil, invalid("nome", "must not be blank")
		}
		changes["nome"] = nome
	}
	if in.Descricao != nil {
		changes["descricao"] = strings.TrimSpace(*in.Descricao)
	}
	if in.Preco != nil {
		preco, err := ParsePrice(in.Preco)
		if err != nil {
			return nil, err
		}
		changes["preco"] = preco
	}
	if in.CategoriaID != nil {
		if err := s.ensureCategory(ctx, *in.CategoriaID); err != nil {
			return nil, err
		}
		changes["id_categoria"] = *in.CategoriaID
	}
	if in.Disponivel != nil {
		changes["disponivel"] = *in.Disponivel
	}
	if in.TipoItem != nil {
		if t := strings.TrimSpace(*in.TipoItem); t != "" {
			changes["tipo_item"] = t
		}
	}

	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Dish{ID: id}).Updates(changes).Error
		if err != nil {
			return nil, errors.Wrap(err, "failed to update dish")
		}
	}
	return s.Dish(ctx, id)
}

func (s *MenuService) SetAvailability(ctx context.Context, id uint, available bool) (*models.Dish, error) {
	if _, err := s.Dish(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&models.Dish{ID: id}).Update("disponivel", available).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to update availability")
	}
	return s.Dish(ctx, id)
}

func (s *MenuService) SetImage(ctx context.Context, id uint, url string) (*models.Dish, error) {
	if _, err := s.Dish(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&models.Dish{ID: id}).Update("imagem_url", url).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to update image")
	}
	return s.Dish(ctx, id)
}

// Ping checks database connectivity.
func (s *MenuService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *MenuService) ensureCategory(ctx context.Context, id uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "failed to check category")
	}
	if count == 0 {
		return invalid("id_categoria", "category does not exist")
	}
	return nil
}

func (s *MenuService) nextDishID(ctx context.Context) (uint, error) {
	var maxID uint
	err := s.db.WithContext(ctx).Model(&models.Dish{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to compute next dish id")
	}
	return maxID + 1, nil
}

// ParsePrice accepts a JSON number or numeric string and rejects negatives.
func ParsePrice(v interface{}) (decimal.Decimal, error) {
	var (
		price decimal.Decimal
		err   error
	)
	switch p := v.(type) {
	case string:
		price, err = decimal.NewFromString(strings.TrimSpace(p))
	case float64:
		price = decimal.NewFromFloat(p)
	case json.Number:
		price, err = decimal.NewFromString(p.String())
	case int:
		price = decimal.NewFromInt(int64(p))
	case decimal.Decimal:
		price = p
	default:
		return decimal.Zero, invalid("preco", "must be a number")
	}
	if err != nil {
		return decimal.Zero, invalid("preco", "must be a number")
	}
	if price.IsNegative() {
		return decimal.Zero, invalid("preco", "must not be negative")
	}
	return price.Round(2), nil
}
