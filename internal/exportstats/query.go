package exportstats

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// TrendQuery bounds a multi-year trend request.
type TrendQuery struct {
	StartYear int `validate:"required,gte=1900,lte=9999"`
	EndYear   int `validate:"required,gte=1900,lte=9999,gtefield=StartYear"`
}

// PageQuery controls pagination of raw statistics. Nil fields are omitted from the request.
type PageQuery struct {
	Page    *int   `validate:"omitempty,gte=0"`
	Size    *int   `validate:"omitempty,gte=1,lte=1000"`
	SortBy  string `validate:"omitempty,alphanum,max=64"`
	SortDir string `validate:"omitempty,oneof=asc desc ASC DESC"`
}

// Values encodes the query parameters that are set.
func (q PageQuery) Values() url.Values {
	values := url.Values{}
	if q.Page != nil {
		values.Set("page", strconv.Itoa(*q.Page))
	}
	if q.Size != nil {
		values.Set("size", strconv.Itoa(*q.Size))
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortDir != "" {
		values.Set("sortDir", q.SortDir)
	}
	return values
}

// Values encodes the trend range.
func (q TrendQuery) Values() url.Values {
	values := url.Values{}
	values.Set("startYear", strconv.Itoa(q.StartYear))
	values.Set("endYear", strconv.Itoa(q.EndYear))
	return values
}

func validateQuery(q any) error {
	if err := validate.Struct(q); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			first := fields[0]
			return fmt.Errorf("%w: %s failed %s", ErrInvalidQuery, first.Field(), first.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}
