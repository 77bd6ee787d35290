package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Evaluate reports whether a document source satisfies the condition tree.
func Evaluate(n Node, source map[string]any) bool {
	switch q := n.(type) {
	case MatchAll:
		return true
	case Match:
		return matchPairs(q.Pairs, source, false)
	case Term:
		return matchPairs(q.Pairs, source, true)
	case Terms:
		for _, f := range q.Fields {
			for _, v := range f.Values {
				if matchField(source, f.Field, v, true) {
					return true
				}
			}
		}
		return false
	case Range:
		for _, b := range q.Fields {
			if !rangeHolds(source, b) {
				return false
			}
		}
		return true
	case Bool:
		return all(q.Clauses, source)
	case Filter:
		return all(q.Clauses, source)
	case Must:
		return all(q.Clauses, source)
	case MustNot:
		for _, c := range q.Clauses {
			if Evaluate(c, source) {
				return false
			}
		}
		return true
	case Should:
		// an empty should list places no constraint
		if len(q.Clauses) == 0 {
			return true
		}
		for _, c := range q.Clauses {
			if Evaluate(c, source) {
				return true
			}
		}
		return false
	case MultiMatch:
		for _, f := range q.Fields {
			if matchField(source, f, q.Query, false) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("query: unhandled node %T", n))
}

func all(clauses []Node, source map[string]any) bool {
	for _, c := range clauses {
		if !Evaluate(c, source) {
			return false
		}
	}
	return true
}

func matchPairs(pairs []FieldValue, source map[string]any, caseSensitive bool) bool {
	for _, p := range pairs {
		if matchField(source, p.Field, p.Value, caseSensitive) {
			return true
		}
	}
	return false
}

func matchField(source map[string]any, field string, want any, caseSensitive bool) bool {
	v, ok := Lookup(source, field)
	if !ok {
		return false
	}
	return matchValue(v, want, caseSensitive)
}

// matchValue compares a stored value with a query value. Lists match when any
// element matches; strings match on substring containment.
func matchValue(stored, want any, caseSensitive bool) bool {
	switch s := stored.(type) {
	case []any:
		for _, e := range s {
			if matchValue(e, want, caseSensitive) {
				return true
			}
		}
		return false
	case []string:
		for _, e := range s {
			if matchValue(e, want, caseSensitive) {
				return true
			}
		}
		return false
	case string:
		w, err := cast.ToStringE(want)
		if err != nil {
			return false
		}
		if !caseSensitive {
			s, w = strings.ToLower(s), strings.ToLower(w)
		}
		return strings.Contains(s, w)
	case nil:
		return want == nil
	}

	if isNumber(stored) {
		sf, err1 := cast.ToFloat64E(stored)
		wf, err2 := cast.ToFloat64E(want)
		if err1 == nil && err2 == nil {
			return sf == wf
		}
	}
	if sb, ok := stored.(bool); ok {
		if wb, err := cast.ToBoolE(want); err == nil {
			return sb == wb
		}
		return false
	}

	ss, err1 := cast.ToStringE(stored)
	ws, err2 := cast.ToStringE(want)
	if err1 != nil || err2 != nil {
		return false
	}
	if caseSensitive {
		return ss == ws
	}
	return strings.EqualFold(ss, ws)
}

// rangeHolds checks every supplied bound; list values never satisfy a range.
func rangeHolds(source map[string]any, b Bounds) bool {
	v, ok := Lookup(source, b.Field)
	if !ok || isList(v) {
		return false
	}
	checks := []struct {
		bound any
		holds func(c int) bool
	}{
		{b.GT, func(c int) bool { return c > 0 }},
		{b.GTE, func(c int) bool { return c >= 0 }},
		{b.LT, func(c int) bool { return c < 0 }},
		{b.LTE, func(c int) bool { return c <= 0 }},
	}
	supplied := false
	for _, chk := range checks {
		if chk.bound == nil {
			continue
		}
		supplied = true
		c, ok := compareBound(v, chk.bound)
		if !ok || !chk.holds(c) {
			return false
		}
	}
	return supplied
}

// compareBound orders a stored value against a bound: numerically for
// numbers, chronologically for timestamps, lexically for other strings.
func compareBound(stored, bound any) (int, bool) {
	switch s := stored.(type) {
	case time.Time:
		bt, err := cast.ToTimeE(bound)
		if err != nil {
			return 0, false
		}
		return compareTimes(s, bt), true
	case string:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return compareNumber(f, bound)
		}
		if st, err := cast.ToTimeE(s); err == nil {
			bs, ok := bound.(string)
			if !ok {
				if bt, isTime := bound.(time.Time); isTime {
					return compareTimes(st, bt), true
				}
				return 0, false
			}
			bt, err := cast.ToTimeE(bs)
			if err != nil {
				return 0, false
			}
			return compareTimes(st, bt), true
		}
		bs, ok := bound.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(s, bs), true
	}

	if isNumber(stored) {
		f, err := cast.ToFloat64E(stored)
		if err != nil {
			return 0, false
		}
		return compareNumber(f, bound)
	}
	return 0, false
}

func compareNumber(f float64, bound any) (int, bool) {
	bf, err := cast.ToFloat64E(bound)
	if err != nil {
		return 0, false
	}
	switch {
	case f < bf:
		return -1, true
	case f > bf:
		return 1, true
	}
	return 0, true
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	}
	return false
}
