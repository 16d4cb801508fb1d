package inmemory

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
)

func matchesFilters(post postsearch.Post, filters []postsearch.Expression) (bool, error) {
	for _, filter := range filters {
		ok, err := evaluateExpression(post, filter)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func evaluateExpression(post postsearch.Post, expr postsearch.Expression) (bool, error) {
	switch e := expr.(type) {
	case postsearch.AndExpr:
		for _, inner := range e.Exprs {
			ok, err := evaluateExpression(post, inner)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case postsearch.OrExpr:
		for _, inner := range e.Exprs {
			ok, err := evaluateExpression(post, inner)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case postsearch.NotExpr:
		if e.Inner == nil {
			return false, errors.Wrap(postsearch.ErrInvalidExpression, "NOT without operand")
		}
		ok, err := evaluateExpression(post, e.Inner)
		return !ok, err
	case postsearch.EqExpr:
		return compareEqual(post.Field(e.Field), e.Value), nil
	case postsearch.NeExpr:
		return !compareEqual(post.Field(e.Field), e.Value), nil
	case postsearch.ExistsExpr:
		v := post.Field(e.Field)
		if s, ok := v.(string); ok {
			return s != "", nil
		}
		return v != nil, nil
	default:
		return false, errors.Wrapf(postsearch.ErrInvalidExpression, "unsupported expression %T", expr)
	}
}

// compareEqual compares strings case-insensitively, since post types and
// statuses arrive from request input.
func compareEqual(v1, v2 interface{}) bool {
	if v1 == nil || v2 == nil {
		return v1 == v2
	}

	if t1, ok := v1.(time.Time); ok {
		if t2, ok := v2.(time.Time); ok {
			return t1.Equal(t2)
		}
	}

	return strings.EqualFold(toString(v1), toString(v2))
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
