package router

import (
	"errors"
	"strconv"
	"strings"

	"github.com/focitech/focitech/engine/listview"
	"github.com/gin-gonic/gin"
)

// ListQuery is one list view interaction decoded from query parameters:
// q searches, sort orders by a column (repeating it flips the direction),
// page jumps, toggle flips row selection, all flips the visible page and
// clear drops the selection.
type ListQuery struct {
	Search    *string
	Sort      string
	Page      int
	Toggle    []string
	ToggleAll bool
	Clear     bool
}

func ParseListQuery(c *gin.Context) ListQuery {
	var q ListQuery
	if raw, ok := c.GetQuery("q"); ok {
		s := strings.TrimSpace(raw)
		q.Search = &s
	}
	q.Sort = strings.TrimSpace(c.Query("sort"))
	if n, err := strconv.Atoi(c.Query("page")); err == nil {
		q.Page = n
	}
	for _, id := range c.QueryArray("toggle") {
		if id = strings.TrimSpace(id); id != "" {
			q.Toggle = append(q.Toggle, id)
		}
	}
	q.ToggleAll = c.Query("all") == "1"
	q.Clear = c.Query("clear") == "1"
	return q
}

// Empty reports whether the query carries no interaction.
func (q ListQuery) Empty() bool {
	return q.Search == nil && q.Sort == "" && q.Page == 0 && len(q.Toggle) == 0 && !q.ToggleAll && !q.Clear
}

// ApplyListQuery drives v with q. Search runs first so that a new query
// resets paging before an explicit page is applied. Unknown sort columns are
// ignored.
func ApplyListQuery[R listview.Record](v *listview.View[R], q ListQuery) {
	if q.Search != nil {
		v.Search(*q.Search)
	}
	if q.Sort != "" {
		if err := v.Sort(q.Sort); err != nil && !errors.Is(err, listview.ErrUnknownColumn) {
			return
		}
	}
	if q.Page > 0 {
		v.GoTo(q.Page)
	}
	if q.Clear {
		v.ClearSelection()
	}
	for _, id := range q.Toggle {
		v.Toggle(id)
	}
	if q.ToggleAll {
		v.ToggleAll()
	}
}

// ParseIDs reads the numeric ids of a bulk form, skipping anything else.
func ParseIDs(raw []string) []int {
	ids := make([]int, 0, len(raw))
	for _, r := range raw {
		for part := range strings.SplitSeq(r, ",") {
			if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
