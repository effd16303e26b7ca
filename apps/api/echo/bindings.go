package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/rollcall/core"
)

const orderingParam = "ordering"

// Ordering binds `?ordering=name,-created_at`: a leading "-" sorts descending.
// Fields outside allowed are dropped, so are repeated ones.
type Ordering struct {
	Orderings []core.DBOrdering
	allowed   map[string]bool
}

func newOrdering(allowed ...string) *Ordering {
	ord := &Ordering{allowed: make(map[string]bool, len(allowed))}
	for _, field := range allowed {
		ord.allowed[field] = true
	}
	return ord
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	seen := make(map[string]bool)
	for _, field := range strings.Split(val, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if !ord.allowed[field] || seen[field] {
			continue
		}
		seen[field] = true
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
