package dto

type InventoryItemRequest struct {
	Nombre      string `json:"nombre"`
	Categoria   string `json:"categoria"`
	Cantidad    int    `json:"cantidad"`
	StockMinimo int    `json:"stock_minimo"`
	Unidad      string `json:"unidad"`
	Ubicacion   string `json:"ubicacion"`
	Notas       string `json:"notas"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}
