package services

import (
	"context"

	"github.com/ABFerraz00/mandacafe/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type seedDish struct {
	nome, descricao, preco, tipo string
}

var seedMenu = []struct {
	nome   string
	ordem  int
	pratos []seedDish
}{
	{"Entradas", 1, []seedDish{
		{"Bolinho de Mandioca", "Bolinhos crocantes de mandioca recheados com carne de sol", "24.90", "prato"},
		{"Caldo de Feijão", "Caldo cremoso de feijão com torresmo e cheiro-verde", "18.50", "prato"},
	}},
	{"Pratos Principais", 2, []seedDish{
		{"Baião de Dois", "Arroz, feijão verde, queijo coalho e nata", "42.00", "prato"},
		{"Carne de Sol com Macaxeira", "Carne de sol na manteiga de garrafa com macaxeira cozida", "58.90", "prato"},
		{"Moqueca de Peixe", "Peixe no leite de coco com dendê, arroz e pirão", "64.00", "prato"},
	}},
	{"Sobremesas", 3, []seedDish{
		{"Cartola", "Banana frita com queijo manteiga, açúcar e canela", "19.90", "sobremesa"},
		{"Bolo de Rolo", "Fatia de bolo de rolo com goiabada", "14.00", "sobremesa"},
	}},
	{"Bebidas", 4, []seedDish{
		{"Café Coado", "Café especial coado na hora", "7.50", "bebida"},
		{"Suco de Cajá", "Suco natural de cajá", "11.00", "bebida"},
	}},
}

// SeedMenu loads the starter menu into an empty database. It reports whether
// anything was inserted.
func SeedMenu(ctx context.Context, db *gorm.DB, svc *MenuService) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to count categories")
	}
	if count > 0 {
		return false, nil
	}

	for _, c := range seedMenu {
		category, err := svc.CreateCategory(ctx, c.nome, c.ordem)
		if err != nil {
			return false, err
		}
		for _, d := range c.pratos {
			id := category.ID
			_, err := svc.CreateDish(ctx, CreateDishInput{
				Nome:        d.nome,
				Descricao:   d.descricao,
				Preco:       d.preco,
				CategoriaID: &id,
				TipoItem:    d.tipo,
			})
			if err != nil {
				return false, errors.Wrapf(err, "failed to seed dish %s", d.nome)
			}
		}
	}
	return true, nil
}
