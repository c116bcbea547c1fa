package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/pagination"
)

// maxPage bounds page numbers so offsets stay far from overflow.
const maxPage = 1_000_000

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePage reads page and page_size for offset-paginated admin lists.
func ParsePage(r *http.Request) (pagination.PageParams, error) {
	page, err := ParseQueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return pagination.PageParams{}, err
	}
	size, err := ParseQueryInt(r, "page_size", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.PageParams{}, err
	}
	return pagination.PageParams{Page: page, PageSize: size}, nil
}

// QueryIncludes reports whether a comma separated query value lists want.
func QueryIncludes(r *http.Request, key, want string) bool {
	for _, part := range strings.Split(r.URL.Query().Get(key), ",") {
		if strings.TrimSpace(part) == want {
			return true
		}
	}
	return false
}
