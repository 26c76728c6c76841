package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/academia/lms/core"
)

var (
	orderingParam = "ordering"
	mineParam     = "mine"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses `?ordering=title,-created_at`: a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func boolParam(ctx echo.Context, name string) bool {
	switch strings.ToLower(ctx.QueryParam(name)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
