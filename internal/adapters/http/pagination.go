package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination is offset-based; Total is the match count before paging.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

func pageLink(path string, offset, limit int, rel string) string {
	return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel=%q`, path, offset, limit, rel)
}

// SetLinkHeaders adds RFC 8288 Link headers (first/prev/next/last) built
// from the current request path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	path := c.Path()

	links := []string{pageLink(path, 0, p.Limit, "first")}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, pageLink(path, prev, p.Limit, "prev"))
	}

	if p.Offset+p.Limit < p.Total {
		links = append(links, pageLink(path, p.Offset+p.Limit, p.Limit, "next"))
	}

	last := p.Total - p.Limit
	if last < 0 {
		last = 0
	}
	links = append(links, pageLink(path, last, p.Limit, "last"))

	// Middleware may already have set Link values (successor-version on
	// deprecated routes); keep them in the list.
	if existing := c.GetRespHeader("Link"); existing != "" {
		links = append([]string{existing}, links...)
	}
	c.Set("Link", strings.Join(links, ", "))
}
