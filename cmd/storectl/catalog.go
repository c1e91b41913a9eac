package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/service"
	"github.com/spf13/cobra"
)

type productRow struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

func (c *cli) newProductsCmd() *cobra.Command {
	var (
		categories []string
		maxPrice   float64
		sortKey    string
		search     string
		featured   bool
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products through the category, price and sort filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := c.catalog()
			if err != nil {
				return err
			}

			if featured {
				return c.printProducts(cmd.OutOrStdout(),
					catalog.Featured(c.cfg.Catalog.FeaturedLimit))
			}

			spec := catalog.DefaultFilter()
			var errs []error
			for _, name := range categories {
				cat, err := domain.ParseCategory(name)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				spec.Categories = append(spec.Categories, cat)
			}
			if cmd.Flags().Changed("max-price") {
				spec.MaxPrice = maxPrice
			}
			spec.Sort, err = domain.ParseSortKey(sortKey)
			if err != nil {
				errs = append(errs, err)
			}
			if err := errors.Join(errs...); err != nil {
				return err
			}

			products := catalog.Products()
			if service.QueryActive(search) {
				products = service.Matches(search, products)
			}
			products = service.ApplyFilter(products, spec)
			if len(products) == 0 && !c.outputJSON {
				fmt.Fprintln(cmd.OutOrStdout(), "No products found. Reset the filters to see the whole catalog.")
				return nil
			}
			return c.printProducts(cmd.OutOrStdout(), products)
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "category to include (repeatable)")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "upper price bound, inclusive (default: catalog.max_price)")
	cmd.Flags().StringVar(&sortKey, "sort", "featured", "featured, price-low, price-high or newest")
	cmd.Flags().StringVar(&search, "search", "", "narrow down to search matches")
	cmd.Flags().BoolVar(&featured, "featured", false, "list featured products only")
	return cmd
}

func (c *cli) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Run the smart search over the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := c.catalog()
			if err != nil {
				return err
			}

			var query string
			if len(args) == 1 {
				query = args[0]
			}
			res := service.Suggest(query, catalog.Products())

			w := cmd.OutOrStdout()
			if c.outputJSON {
				return c.writeJSON(w, map[string]any{
					"query":     res.Query,
					"open":      res.Open,
					"not_found": res.NotFound,
					"products":  toRows(res.Products),
					"popular":   res.Popular,
				})
			}

			switch {
			case !res.Open:
				fmt.Fprintln(w, "Popular searches:")
				for _, term := range res.Popular {
					fmt.Fprintf(w, "  %s\n", term)
				}
				return nil
			case res.NotFound:
				fmt.Fprintf(w, "No products found for %q\n", strings.TrimSpace(query))
				return nil
			}
			return c.printProducts(w, res.Products)
		},
	}
}

func (c *cli) printProducts(w io.Writer, ps []domain.Product) error {
	if c.outputJSON {
		return c.writeJSON(w, toRows(ps))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tCATEGORY\tPRICE")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n",
			p.ID, p.SKU, p.Name, p.Category, p.Price)
	}
	return tw.Flush()
}

func toRows(ps []domain.Product) []productRow {
	rows := make([]productRow, len(ps))
	for i, p := range ps {
		rows[i] = productRow{
			ID:       p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			Category: string(p.Category),
			Price:    p.Price,
		}
	}
	return rows
}
