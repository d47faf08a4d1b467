package api

// Page страница списка в формате backend'а
type Page[T any] struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
	Count    int     `json:"count"`
}

// BulkDeleteRequest тело запроса на bulk_delete/
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}
