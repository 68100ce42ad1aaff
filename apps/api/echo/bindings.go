package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ums/core"
)

const orderingParam = "ordering"

// listFilter is the query filter of a list endpoint.
type listFilter interface {
	Clean()
}

// bindList binds the query string of a list endpoint into filter and returns the requested ordering.
// ok is false when the query string does not fit filter: nothing can match it.
func bindList(ctx echo.Context, filter listFilter) (ordering []core.DBOrdering, ok bool) {
	if err := ctx.Bind(filter); err != nil {
		return nil, false
	}
	filter.Clean()
	return parseOrdering(ctx.QueryParam(orderingParam)), true
}

// parseOrdering reads comma separated fields, "-" prefixed ones in descending order.
// Blank and repeated fields are skipped; unknown ones are left to the repositories.
func parseOrdering(param string) []core.DBOrdering {
	var (
		ordering []core.DBOrdering
		seen     = make(map[string]bool)
	)
	for _, field := range strings.Split(param, ",") {
		field = strings.TrimSpace(field)
		asc := !strings.HasPrefix(field, "-")
		field = strings.TrimSpace(strings.TrimPrefix(field, "-"))
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		ordering = append(ordering, core.DBOrdering{Field: field, Ascending: asc})
	}
	return ordering
}
