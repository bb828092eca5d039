package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultItemType = "prato"

// Dish is a menu item. Codigo is derived from the id at creation and never
// rewritten; dishes are never hard-deleted, only made unavailable.
type Dish struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Codigo      string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"codigo"`
	Nome        string          `gorm:"type:varchar(150);not null" json:"nome"`
	Descricao   string          `gorm:"type:text;not null" json:"descricao"`
	Preco       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"preco"`
	Disponivel  bool            `gorm:"not null;index" json:"disponivel"`
	CategoriaID uint            `gorm:"column:id_categoria;not null;index" json:"id_categoria"`
	Categoria   *Category       `gorm:"foreignKey:CategoriaID" json:"categoria,omitempty"`
	TipoItem    string          `gorm:"type:varchar(30);not null" json:"tipo_item"`
	ImagemURL   string          `gorm:"type:varchar(512)" json:"imagem_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Dish) TableName() string { return "pratos" }
