package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

// fail logs err under event and turns it into the HTTP error matching its service sentinel.
func fail(l *slog.Logger, event string, err error) error {
	for _, m := range []struct {
		sentinel error
		code     int
	}{
		{service.ErrValidation, http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
	} {
		if errors.Is(err, m.sentinel) {
			l.Warn(event, "status", m.code, "error", err)
			return echo.NewHTTPError(m.code, strings.TrimSuffix(err.Error(), ": "+m.sentinel.Error()))
		}
	}
	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(id), nil
}

type page struct {
	page, offset, limit int
}

func pageParams(c echo.Context) page {
	p := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(p, size)
	return page{page: offset/limit + 1, offset: offset, limit: limit}
}

func (p page) body(items any, total int64) map[string]any {
	return map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        p.page,
			"size":        p.limit,
			"total":       total,
			"total_pages": (total + int64(p.limit) - 1) / int64(p.limit),
			"has_prev":    p.page > 1,
			"has_next":    int64(p.offset+p.limit) < total,
		},
	}
}
