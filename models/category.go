package models

import "time"

// Category groups dishes on the menu. OrdemExibicao drives every listing;
// ties are broken by ID.
type Category struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Nome          string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"nome"`
	OrdemExibicao int       `gorm:"not null;default:0;index" json:"ordem_exibicao"`
	Pratos        []Dish    `gorm:"foreignKey:CategoriaID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"pratos,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categorias" }
