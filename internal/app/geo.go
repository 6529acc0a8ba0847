package app

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// FirstSuccess calls attempt with each code in order and returns the first
// result that succeeds. onFailure, if set, is called for every failed code.
// An empty code list makes a single attempt without a geo bypass code.
// When every code fails the returned error wraps domain.ErrAllCodesExhausted
// and aggregates the per-code errors.
func FirstSuccess[T any](codes []string, attempt func(code string) (T, error), onFailure func(code string, err error)) (T, error) {
	if len(codes) == 0 {
		codes = []string{""}
	}

	var errs *multierror.Error
	for _, code := range codes {
		result, err := attempt(code)
		if err == nil {
			return result, nil
		}
		if onFailure != nil {
			onFailure(code, err)
		}
		errs = multierror.Append(errs, err)
	}

	var zero T
	return zero, fmt.Errorf("%w: %w", domain.ErrAllCodesExhausted, errs.ErrorOrNil())
}
