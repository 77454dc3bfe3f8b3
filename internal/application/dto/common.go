package dto

// PageResponse metadatos de página en respuestas. Count es el número de items devueltos;
// Count < Limit indica que no hay más páginas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// NewPage arma los metadatos de una página ya leída.
func NewPage(limit, offset, count int) PageResponse {
	return PageResponse{Limit: limit, Offset: offset, Count: count}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
