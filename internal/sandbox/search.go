package sandbox

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type searchFilter struct {
	Field string `json:"field"`
	Query string `json:"query"`
}

// SearchCandidates handles GET /search/new/candidates. Every filter must
// match; the "all" field matches against any attribute.
func (h *Handler) SearchCandidates(c *gin.Context) {
	var filters []searchFilter
	if raw := c.Query("filters_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			abortWithErrors(c, http.StatusBadRequest, nil, "filters_json is not a valid filter list")
			return
		}
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		abortWithErrors(c, http.StatusBadRequest, nil, err.Error())
		return
	}
	page, err := queryInt(c, "page")
	if err != nil {
		abortWithErrors(c, http.StatusBadRequest, nil, err.Error())
		return
	}

	hits := make([]map[string]any, 0)
	for _, rec := range h.store.List(candidatesCollection.name) {
		if matchesAll(rec, filters) {
			hits = append(hits, rec)
		}
	}
	total := len(hits)

	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := min((page-1)*limit, total)
		end := min(start+limit, total)
		hits = hits[start:end]
	}

	c.JSON(http.StatusOK, gin.H{"hits": hits, "total": total})
}

// QuickSearch handles the legacy GET /search/new/quick endpoint.
func (h *Handler) QuickSearch(c *gin.Context) {
	filter := searchFilter{Field: "all", Query: c.Query("query")}
	hits := make([]map[string]any, 0)
	for _, rec := range h.store.List(candidatesCollection.name) {
		if matches(rec, filter) {
			hits = append(hits, rec)
		}
	}
	c.JSON(http.StatusOK, gin.H{"candidates": gin.H{"hits": hits, "total": len(hits)}})
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func matchesAll(rec map[string]any, filters []searchFilter) bool {
	for _, f := range filters {
		if !matches(rec, f) {
			return false
		}
	}
	return true
}

func matches(rec map[string]any, f searchFilter) bool {
	needle := strings.ToLower(strings.TrimSpace(f.Query))
	if needle == "" {
		return true
	}
	for key, value := range rec {
		if f.Field != "all" && f.Field != key {
			continue
		}
		if containsText(value, needle) {
			return true
		}
	}
	return false
}

func containsText(value any, needle string) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.Contains(strings.ToLower(v), needle)
	case []any:
		for _, item := range v {
			if containsText(item, needle) {
				return true
			}
		}
		return false
	case map[string]any:
		for _, item := range v {
			if containsText(item, needle) {
				return true
			}
		}
		return false
	default:
		return strings.Contains(strings.ToLower(fmt.Sprint(v)), needle)
	}
}
