package models

// SearchResponse — ответ POST /api/business/search.
type SearchResponse struct {
	Success bool       `json:"success"`
	Count   int        `json:"count"`
	Data    []Business `json:"data"`
}

// DetailsResponse — ответ GET /api/business/{placeId}.
type DetailsResponse struct {
	Success bool            `json:"success"`
	Data    BusinessDetails `json:"data"`
}

// HealthResponse — ответ GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
