package exportstats

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Countries lists every country.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	var rows []Country
	err := c.getJSON(ctx, "countries", "/countries", nil, &rows)
	return rows, err
}

// Country loads a country by id.
func (c *Client) Country(ctx context.Context, id int64) (Country, error) {
	var row Country
	err := c.getJSON(ctx, "country", fmt.Sprintf("/countries/%d", id), nil, &row)
	return row, err
}

// CountryByCode loads a country by its ISO code.
func (c *Client) CountryByCode(ctx context.Context, code string) (Country, error) {
	var row Country
	err := c.getJSON(ctx, "country_by_code", "/countries/code/"+url.PathEscape(code), nil, &row)
	return row, err
}

// CountriesByRegion lists the countries of a region.
func (c *Client) CountriesByRegion(ctx context.Context, region string) ([]Country, error) {
	var rows []Country
	err := c.getJSON(ctx, "countries_by_region", "/countries/region/"+url.PathEscape(region), nil, &rows)
	return rows, err
}

// CountriesByContinent lists the countries of a continent.
func (c *Client) CountriesByContinent(ctx context.Context, continent string) ([]Country, error) {
	var rows []Country
	err := c.getJSON(ctx, "countries_by_continent", "/countries/continent/"+url.PathEscape(continent), nil, &rows)
	return rows, err
}

// SearchCountries matches countries by name or code.
func (c *Client) SearchCountries(ctx context.Context, keyword string) ([]Country, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword required", ErrInvalidQuery)
	}
	var rows []Country
	err := c.getJSON(ctx, "search_countries", "/countries/search", url.Values{"keyword": {keyword}}, &rows)
	return rows, err
}

// Regions lists the distinct country regions.
func (c *Client) Regions(ctx context.Context) ([]string, error) {
	var rows []string
	err := c.getJSON(ctx, "regions", "/countries/regions", nil, &rows)
	return rows, err
}

// Continents lists the distinct continents.
func (c *Client) Continents(ctx context.Context) ([]string, error) {
	var rows []string
	err := c.getJSON(ctx, "continents", "/countries/continents", nil, &rows)
	return rows, err
}

// ProductCategories lists every product category.
func (c *Client) ProductCategories(ctx context.Context) ([]ProductCategory, error) {
	var rows []ProductCategory
	err := c.getJSON(ctx, "product_categories", "/product-categories", nil, &rows)
	return rows, err
}

// ProductCategory loads a category by id.
func (c *Client) ProductCategory(ctx context.Context, id int64) (ProductCategory, error) {
	var row ProductCategory
	err := c.getJSON(ctx, "product_category", fmt.Sprintf("/product-categories/%d", id), nil, &row)
	return row, err
}

// ProductCategoryByHSCode loads a category by HS code.
func (c *Client) ProductCategoryByHSCode(ctx context.Context, hsCode string) (ProductCategory, error) {
	var row ProductCategory
	err := c.getJSON(ctx, "product_category_by_hs", "/product-categories/hs-code/"+url.PathEscape(hsCode), nil, &row)
	return row, err
}

// ProductCategoriesByLevel lists the categories at an HS level.
func (c *Client) ProductCategoriesByLevel(ctx context.Context, level int) ([]ProductCategory, error) {
	var rows []ProductCategory
	err := c.getJSON(ctx, "product_categories_by_level", fmt.Sprintf("/product-categories/level/%d", level), nil, &rows)
	return rows, err
}

// ProductCategoriesByParent lists the children of an HS code.
func (c *Client) ProductCategoriesByParent(ctx context.Context, parentHSCode string) ([]ProductCategory, error) {
	var rows []ProductCategory
	err := c.getJSON(ctx, "product_categories_by_parent", "/product-categories/parent/"+url.PathEscape(parentHSCode), nil, &rows)
	return rows, err
}

// SearchProductCategories matches categories by name or HS code.
func (c *Client) SearchProductCategories(ctx context.Context, keyword string) ([]ProductCategory, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword required", ErrInvalidQuery)
	}
	var rows []ProductCategory
	err := c.getJSON(ctx, "search_product_categories", "/product-categories/search", url.Values{"keyword": {keyword}}, &rows)
	return rows, err
}

// MainProductCategories lists the top-level categories.
func (c *Client) MainProductCategories(ctx context.Context) ([]ProductCategory, error) {
	var rows []ProductCategory
	err := c.getJSON(ctx, "main_product_categories", "/product-categories/main", nil, &rows)
	return rows, err
}

// ProductCategoryLevels lists the HS levels present in the catalogue.
func (c *Client) ProductCategoryLevels(ctx context.Context) ([]int, error) {
	var rows []int
	err := c.getJSON(ctx, "product_category_levels", "/product-categories/levels", nil, &rows)
	return rows, err
}
