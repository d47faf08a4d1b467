package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	pkgapi "github.com/iudanet/infradash/pkg/api"
)

// DefaultPageSize размер страницы, если page_size не задан
const DefaultPageSize = 20

// Item элемент коллекции в виде JSON-объекта
type Item = map[string]any

type collection struct {
	items  []Item
	nextID int64
}

// Seed добавляет элементы в коллекцию resource, назначая id
func (b *Backend) Seed(resource string, items ...Item) []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	created := make([]Item, 0, len(items))
	for _, item := range items {
		created = append(created, b.insertLocked(resource, item))
	}
	return created
}

// Items возвращает копию элементов коллекции
func (b *Backend) Items(resource string) []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	col, ok := b.collections[resource]
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(col.items))
	for _, item := range col.items {
		out = append(out, maps.Clone(item))
	}
	return out
}

func (b *Backend) collectionLocked(resource string) *collection {
	col, ok := b.collections[resource]
	if !ok {
		col = &collection{}
		b.collections[resource] = col
	}
	return col
}

func (b *Backend) insertLocked(resource string, item Item) Item {
	col := b.collectionLocked(resource)
	col.nextID++

	stored := maps.Clone(item)
	if stored == nil {
		stored = Item{}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	stored["id"] = col.nextID
	stored["created_at"] = now
	stored["updated_at"] = now
	col.items = append(col.items, stored)
	return maps.Clone(stored)
}

// itemID приводит id из JSON (float64) или Seed (int64) к int64
func itemID(v any) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	case float64:
		return int64(id), true
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func (c *collection) index(id int64) int {
	return slices.IndexFunc(c.items, func(item Item) bool {
		itemIDValue, ok := itemID(item["id"])
		return ok && itemIDValue == id
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// list обрабатывает GET /{resource}/ с page и page_size
func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(q.Get("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = DefaultPageSize
	}

	b.mu.Lock()
	col := b.collectionLocked(resource)
	total := len(col.items)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	results := make([]Item, 0, end-start)
	for _, item := range col.items[start:end] {
		results = append(results, maps.Clone(item))
	}
	b.mu.Unlock()

	resp := pkgapi.Page[Item]{
		Count:   total,
		Results: results,
	}
	if end < total {
		resp.Next = pageLink(r, page+1, pageSize)
	}
	if page > 1 {
		resp.Previous = pageLink(r, page-1, pageSize)
	}

	sendJSON(w, resp, http.StatusOK)
}

func pageLink(r *http.Request, page, pageSize int) *string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	link := fmt.Sprintf("http://%s%s?%s", r.Host, r.URL.Path, q.Encode())
	return &link
}

// create обрабатывает POST /{resource}/
func (b *Backend) create(w http.ResponseWriter, r *http.Request) {
	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if name, ok := item["name"]; ok && name == "" {
		sendJSON(w, pkgapi.ErrorResponse{
			Errors: map[string][]string{"name": {"This field may not be blank."}},
		}, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	created := b.insertLocked(chi.URLParam(r, "resource"), item)
	b.mu.Unlock()

	sendJSON(w, created, http.StatusCreated)
}

// get обрабатывает GET /{resource}/{id}/
func (b *Backend) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, "Not found.", http.StatusNotFound)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	col := b.collectionLocked(chi.URLParam(r, "resource"))
	i := col.index(id)
	if i < 0 {
		sendError(w, "Not found.", http.StatusNotFound)
		return
	}
	sendJSON(w, maps.Clone(col.items[i]), http.StatusOK)
}

// update обрабатывает PUT /{resource}/{id}/ (полная замена)
func (b *Backend) update(w http.ResponseWriter, r *http.Request) {
	b.modify(w, r, false)
}

// patch обрабатывает PATCH /{resource}/{id}/ (частичное обновление)
func (b *Backend) patch(w http.ResponseWriter, r *http.Request) {
	b.modify(w, r, true)
}

func (b *Backend) modify(w http.ResponseWriter, r *http.Request, merge bool) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, "Not found.", http.StatusNotFound)
		return
	}

	var changes Item
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	col := b.collectionLocked(chi.URLParam(r, "resource"))
	i := col.index(id)
	if i < 0 {
		sendError(w, "Not found.", http.StatusNotFound)
		return
	}

	sendJSON(w, replaceItem(col, i, changes, merge), http.StatusOK)
}

func replaceItem(col *collection, i int, changes Item, merge bool) Item {
	current := col.items[i]
	next := Item{}
	if merge {
		next = maps.Clone(current)
	}
	maps.Copy(next, changes)
	next["id"] = current["id"]
	next["created_at"] = current["created_at"]
	next["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	col.items[i] = next
	return maps.Clone(next)
}

// remove обрабатывает DELETE /{resource}/{id}/
func (b *Backend) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, "Not found.", http.StatusNotFound)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	col := b.collectionLocked(chi.URLParam(r, "resource"))
	i := col.index(id)
	if i < 0 {
		sendError(w, "Not found.", http.StatusNotFound)
		return
	}
	col.items = slices.Delete(col.items, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

// bulkCreate обрабатывает POST /{resource}/bulk_create/
func (b *Backend) bulkCreate(w http.ResponseWriter, r *http.Request) {
	var items []Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		sendError(w, "expected a list of items", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	created := make([]Item, 0, len(items))
	for _, item := range items {
		created = append(created, b.insertLocked(chi.URLParam(r, "resource"), item))
	}
	b.mu.Unlock()

	sendJSON(w, created, http.StatusCreated)
}

// bulkUpdate обрабатывает PATCH /{resource}/bulk_update/, каждый элемент содержит id
func (b *Backend) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	var items []Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		sendError(w, "expected a list of items", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	col := b.collectionLocked(chi.URLParam(r, "resource"))
	updated := make([]Item, 0, len(items))
	for _, item := range items {
		id, ok := itemID(item["id"])
		if !ok {
			sendError(w, "id is required for bulk update", http.StatusBadRequest)
			return
		}
		i := col.index(id)
		if i < 0 {
			sendError(w, fmt.Sprintf("item %d not found", id), http.StatusNotFound)
			return
		}
		updated = append(updated, replaceItem(col, i, item, true))
	}

	sendJSON(w, updated, http.StatusOK)
}

// bulkDelete обрабатывает DELETE /{resource}/bulk_delete/ с телом {"ids": [...]}
func (b *Backend) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req pkgapi.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	col := b.collectionLocked(chi.URLParam(r, "resource"))
	col.items = slices.DeleteFunc(col.items, func(item Item) bool {
		id, ok := itemID(item["id"])
		return ok && slices.Contains(req.IDs, id)
	})
	w.WriteHeader(http.StatusNoContent)
}

// UploadResult ответ на загрузку файла
type UploadResult struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// upload обрабатывает POST /{resource}/upload/ (multipart, поле file)
func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		sendError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		sendError(w, "failed to read file", http.StatusBadRequest)
		return
	}

	sendJSON(w, UploadResult{Filename: header.Filename, Size: size}, http.StatusCreated)
}
