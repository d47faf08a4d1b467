package cli

import (
	"fmt"
	"strconv"

	"github.com/iudanet/infradash/internal/client/resources"
)

func resourceNames() []string {
	return resources.Names()
}

// collection возвращает сервис коллекции по имени из командной строки
func (c *Cli) collection(name string) (*resources.Service[resources.Record], error) {
	svc, ok := c.app.Inventory.Generic(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown resource %q", ErrUsage, name)
	}
	return svc, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrUsage, s)
	}
	return id, nil
}

// recordLabel человекочитаемое имя элемента без схемы
func recordLabel(r resources.Record) string {
	for _, key := range []string{"name", "hostname", "username", "title"} {
		if v, ok := r[key].(string); ok && v != "" {
			return v
		}
	}
	return "-"
}

func recordID(r resources.Record) string {
	switch id := r["id"].(type) {
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case nil:
		return "-"
	default:
		return fmt.Sprint(id)
	}
}
