// Package resources типизированные обертки над REST-коллекциями инвентаря
package resources

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iudanet/infradash/internal/client/api"
	pkgapi "github.com/iudanet/infradash/pkg/api"
)

// Service CRUD и bulk операции над одной коллекцией
type Service[T any] struct {
	client *api.Client
	path   string
}

// New создает сервис коллекции path, например "/racks/" или "racks"
func New[T any](client *api.Client, path string) *Service[T] {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Service[T]{client: client, path: path}
}

// Path возвращает путь коллекции
func (s *Service[T]) Path() string {
	return s.path
}

func (s *Service[T]) itemPath(id int64) string {
	return s.path + strconv.FormatInt(id, 10) + "/"
}

// List возвращает одну страницу
func (s *Service[T]) List(ctx context.Context, params api.ListParams) (*pkgapi.Page[T], error) {
	page, err := api.GetPaginated[T](ctx, s.client, s.path, params)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.path, err)
	}
	return page, nil
}

// All проходит все страницы
func (s *Service[T]) All(ctx context.Context, params api.ListParams) ([]T, error) {
	items, err := api.GetAll[T](ctx, s.client, s.path, params)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.path, err)
	}
	return items, nil
}

// Get возвращает элемент по id
func (s *Service[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := s.client.Get(ctx, s.itemPath(id), &item); err != nil {
		return nil, fmt.Errorf("get %s%d: %w", s.path, id, err)
	}
	return &item, nil
}

// Create создает элемент
func (s *Service[T]) Create(ctx context.Context, item T) (*T, error) {
	var created T
	if err := s.client.Post(ctx, s.path, item, &created); err != nil {
		return nil, fmt.Errorf("create in %s: %w", s.path, err)
	}
	return &created, nil
}

// Update полностью заменяет элемент
func (s *Service[T]) Update(ctx context.Context, id int64, item T) (*T, error) {
	var updated T
	if err := s.client.Put(ctx, s.itemPath(id), item, &updated); err != nil {
		return nil, fmt.Errorf("update %s%d: %w", s.path, id, err)
	}
	return &updated, nil
}

// Patch обновляет только переданные поля
func (s *Service[T]) Patch(ctx context.Context, id int64, fields map[string]any) (*T, error) {
	var updated T
	if err := s.client.Patch(ctx, s.itemPath(id), fields, &updated); err != nil {
		return nil, fmt.Errorf("patch %s%d: %w", s.path, id, err)
	}
	return &updated, nil
}

// Delete удаляет элемент
func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, s.itemPath(id), nil); err != nil {
		return fmt.Errorf("delete %s%d: %w", s.path, id, err)
	}
	return nil
}

// BulkCreate создает несколько элементов одним запросом
func (s *Service[T]) BulkCreate(ctx context.Context, items []T) ([]T, error) {
	created, err := api.BulkCreate(ctx, s.client, s.path, items)
	if err != nil {
		return nil, fmt.Errorf("bulk create in %s: %w", s.path, err)
	}
	return created, nil
}

// BulkUpdate обновляет несколько элементов, каждый должен содержать id
func (s *Service[T]) BulkUpdate(ctx context.Context, items []T) ([]T, error) {
	updated, err := api.BulkUpdate(ctx, s.client, s.path, items)
	if err != nil {
		return nil, fmt.Errorf("bulk update in %s: %w", s.path, err)
	}
	return updated, nil
}

// BulkDelete удаляет элементы по id
func (s *Service[T]) BulkDelete(ctx context.Context, ids []int64) error {
	if err := s.client.BulkDelete(ctx, s.path, ids); err != nil {
		return fmt.Errorf("bulk delete in %s: %w", s.path, err)
	}
	return nil
}

// Upload загружает файл (например, CSV для импорта) в {path}upload/
func (s *Service[T]) Upload(ctx context.Context, filename string, content io.Reader, result any, opts ...api.RequestOption) error {
	if err := s.client.UploadFile(ctx, s.path+"upload/", filename, content, result, opts...); err != nil {
		return fmt.Errorf("upload to %s: %w", s.path, err)
	}
	return nil
}
