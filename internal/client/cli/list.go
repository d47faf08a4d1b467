package cli

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/iudanet/infradash/internal/client/api"
	"github.com/iudanet/infradash/internal/client/resources"
)

func (c *Cli) runList(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing resource. Usage: infradash list <resource> [flags] [field=value...]", ErrUsage)
	}

	svc, err := c.collection(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(c.io)
	page := fs.Int("page", 0, "Page number")
	pageSize := fs.Int("page-size", 0, "Items per page")
	search := fs.String("search", "", "Full-text search")
	ordering := fs.String("ordering", "", "Ordering field, prefix with - for descending")
	all := fs.Bool("all", false, "Fetch every page")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	filters, err := parseFilters(fs.Args())
	if err != nil {
		return err
	}

	if _, err := c.requireUser(ctx); err != nil {
		return err
	}

	params := api.ListParams{
		Filters:  filters,
		Search:   *search,
		Ordering: *ordering,
		Page:     *page,
		PageSize: *pageSize,
	}

	if *all {
		items, err := svc.All(ctx, params)
		if err != nil {
			return err
		}
		if err := c.printRecords(items); err != nil {
			return err
		}
		c.io.Printf("\nTotal: %d\n", len(items))
		return nil
	}

	res, err := svc.List(ctx, params)
	if err != nil {
		return err
	}
	if err := c.printRecords(res.Results); err != nil {
		return err
	}
	c.io.Printf("\nShowing %d of %d", len(res.Results), res.Count)
	if res.Next != nil {
		c.io.Printf(" (more with --page %d)", max(*page, 1)+1)
	}
	c.io.Println()
	return nil
}

func (c *Cli) printRecords(items []resources.Record) error {
	if len(items) == 0 {
		c.io.Println("No items found.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tUPDATED")
	for _, item := range items {
		updated, _ := item["updated_at"].(string)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", recordID(item), recordLabel(item), updated)
	}
	return w.Flush()
}

// parseFilters разбирает аргументы вида field=value
func parseFilters(args []string) (url.Values, error) {
	if len(args) == 0 {
		return nil, nil
	}
	filters := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: filter %q must be field=value", ErrUsage, arg)
		}
		filters.Add(key, value)
	}
	return filters, nil
}
