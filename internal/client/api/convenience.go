package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgapi "github.com/iudanet/infradash/pkg/api"
)

// Get выполняет GET запрос
func (c *Client) Get(ctx context.Context, path string, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, result, opts...)
}

// Post выполняет POST запрос
func (c *Client) Post(ctx context.Context, path string, body, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, result, opts...)
}

// Put выполняет PUT запрос
func (c *Client) Put(ctx context.Context, path string, body, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, result, opts...)
}

// Patch выполняет PATCH запрос
func (c *Client) Patch(ctx context.Context, path string, body, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, result, opts...)
}

// Delete выполняет DELETE запрос
func (c *Client) Delete(ctx context.Context, path string, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, result, opts...)
}

// ListParams параметры постраничного списка
type ListParams struct {
	Filters  url.Values
	Search   string
	Ordering string
	Page     int
	PageSize int
}

// Values кодирует параметры в query
func (p ListParams) Values() url.Values {
	q := url.Values{}
	for k, vs := range p.Filters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Ordering != "" {
		q.Set("ordering", p.Ordering)
	}
	return q
}

// GetPaginated запрашивает одну страницу списка
func GetPaginated[T any](ctx context.Context, c *Client, path string, params ListParams) (*pkgapi.Page[T], error) {
	var page pkgapi.Page[T]
	if err := c.Get(ctx, path, &page, WithQuery(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}

// ErrForeignNextPage ссылка next ведет за пределы базового URL API
var ErrForeignNextPage = errors.New("next page url is outside the api base url")

// GetAll проходит по ссылкам next и собирает все элементы списка.
// Ссылка на другой хост отклоняется, повтор уже запрошенной страницы завершает обход.
func GetAll[T any](ctx context.Context, c *Client, path string, params ListParams) ([]T, error) {
	first, err := c.pageURL(path, params.Values())
	if err != nil {
		return nil, err
	}
	page, err := GetPaginated[T](ctx, c, path, params)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{first: {}}
	items := append([]T(nil), page.Results...)
	for page.Next != nil && *page.Next != "" {
		next, err := c.pageURL(*page.Next, nil)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[next]; ok {
			c.logger.WarnContext(ctx, "pagination loop detected, stopping", slog.String("next", next))
			break
		}
		seen[next] = struct{}{}

		page = &pkgapi.Page[T]{}
		if err := c.Get(ctx, next, page); err != nil {
			return nil, err
		}
		items = append(items, page.Results...)
	}
	return items, nil
}

// UploadFile отправляет файл как multipart/form-data в поле "file".
// Тело собирается в памяти, поэтому запрос можно повторить после обновления токена.
func (c *Client) UploadFile(ctx context.Context, path, filename string, content io.Reader, result any, opts ...RequestOption) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	r := &request{
		method:      http.MethodPost,
		path:        path,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return c.execute(ctx, r, result)
}

// BulkCreate POST {path}bulk_create/
func BulkCreate[T any](ctx context.Context, c *Client, path string, items []T) ([]T, error) {
	var created []T
	if err := c.Post(ctx, bulkPath(path, "bulk_create"), items, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// BulkUpdate PATCH {path}bulk_update/
func BulkUpdate[T any](ctx context.Context, c *Client, path string, items []T) ([]T, error) {
	var updated []T
	if err := c.Patch(ctx, bulkPath(path, "bulk_update"), items, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkDelete DELETE {path}bulk_delete/ с телом {"ids": [...]}
func (c *Client) BulkDelete(ctx context.Context, path string, ids []int64) error {
	return c.Do(ctx, http.MethodDelete, bulkPath(path, "bulk_delete"), pkgapi.BulkDeleteRequest{IDs: ids}, nil)
}

// HealthCheck проверяет доступность backend'а
func (c *Client) HealthCheck(ctx context.Context) (*pkgapi.HealthResponse, error) {
	var resp pkgapi.HealthResponse
	if err := c.Get(ctx, PathHealth, &resp, WithoutAuth()); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &resp, nil
}

// pageURL приводит ссылку на страницу к абсолютному URL и проверяет, что она указывает на baseURL
func (c *Client) pageURL(path string, query url.Values) (string, error) {
	target, err := c.resolve(path, query)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", target, err)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", c.baseURL, err)
	}
	if u.Scheme != base.Scheme || u.Host != base.Host {
		return "", fmt.Errorf("%w: %s", ErrForeignNextPage, u.Redacted())
	}
	return u.String(), nil
}

func bulkPath(path, action string) string {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + action + "/"
}
