package entity

type CatalogItem struct {
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Price       int64  `json:"price" db:"price"`
	Category    string `json:"category" db:"category"`
}
