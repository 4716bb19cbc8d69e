package domain

// PagedResponse представляет ответ с пагинацией для API
type PagedResponse struct {
	Items      interface{} `json:"items"`       // Элементы на текущей странице
	TotalItems int         `json:"total_items"` // Общее количество элементов
	Page       int         `json:"page"`        // Текущая страница
	PageSize   int         `json:"page_size"`   // Размер страницы
	TotalPages int         `json:"total_pages"` // Общее количество страниц
}

// NewPagedResponse заполняет ответ и вычисляет число страниц
func NewPagedResponse(items interface{}, totalItems, page, pageSize int) PagedResponse {
	return PagedResponse{
		Items:      items,
		TotalItems: totalItems,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(totalItems, pageSize),
	}
}

// TotalPages возвращает число страниц; пустая коллекция занимает одну страницу
func TotalPages(totalItems, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 1
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Offset возвращает смещение для страницы с номером page (от 1)
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
