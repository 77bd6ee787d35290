// Package query parses request query bodies into a closed tree of condition
// nodes and evaluates that tree against document sources.
package query

// Kind enumerates the supported clause types.
type Kind int

// Clause kinds.
const (
	KindMatchAll Kind = iota
	KindMatch
	KindTerm
	KindTerms
	KindRange
	KindBool
	KindFilter
	KindMust
	KindMustNot
	KindShould
	KindMultiMatch
)

var kindNames = map[Kind]string{
	KindMatchAll:   "match_all",
	KindMatch:      "match",
	KindTerm:       "term",
	KindTerms:      "terms",
	KindRange:      "range",
	KindBool:       "bool",
	KindFilter:     "filter",
	KindMust:       "must",
	KindMustNot:    "must_not",
	KindShould:     "should",
	KindMultiMatch: "multi_match",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the clause name as written in request bodies.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a clause name. ok is false for unsupported clause types.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// Node is one condition in a query tree. The set of implementations is closed.
type Node interface {
	Kind() Kind
	node()
}

// FieldValue pairs a dot-path field with the value to look for.
type FieldValue struct {
	Field string
	Value any
}

// FieldValues pairs a dot-path field with a list of acceptable values.
type FieldValues struct {
	Field  string
	Values []any
}

// Bounds holds the range operators supplied for one field. Nil means absent.
type Bounds struct {
	Field string
	GT    any
	GTE   any
	LT    any
	LTE   any
}

// MatchAll matches every document.
type MatchAll struct{}

// Match is a case-insensitive OR over field/value pairs.
type Match struct{ Pairs []FieldValue }

// Term is a case-sensitive OR over field/value pairs.
type Term struct{ Pairs []FieldValue }

// Terms is an OR of Term over every (field, value) combination.
type Terms struct{ Fields []FieldValues }

// Range requires every supplied bound of every field to hold.
type Range struct{ Fields []Bounds }

// Bool is an AND over its clauses.
type Bool struct{ Clauses []Node }

// Filter is an AND over its clauses.
type Filter struct{ Clauses []Node }

// Must is an AND over its clauses.
type Must struct{ Clauses []Node }

// MustNot matches when none of its clauses match.
type MustNot struct{ Clauses []Node }

// Should is an OR over its clauses.
type Should struct{ Clauses []Node }

// MultiMatch matches one value case-insensitively against several fields.
type MultiMatch struct {
	Query  any
	Fields []string
}

func (MatchAll) Kind() Kind   { return KindMatchAll }
func (Match) Kind() Kind      { return KindMatch }
func (Term) Kind() Kind       { return KindTerm }
func (Terms) Kind() Kind      { return KindTerms }
func (Range) Kind() Kind      { return KindRange }
func (Bool) Kind() Kind       { return KindBool }
func (Filter) Kind() Kind     { return KindFilter }
func (Must) Kind() Kind       { return KindMust }
func (MustNot) Kind() Kind    { return KindMustNot }
func (Should) Kind() Kind     { return KindShould }
func (MultiMatch) Kind() Kind { return KindMultiMatch }

func (MatchAll) node()   {}
func (Match) node()      {}
func (Term) node()       {}
func (Terms) node()      {}
func (Range) node()      {}
func (Bool) node()       {}
func (Filter) node()     {}
func (Must) node()       {}
func (MustNot) node()    {}
func (Should) node()     {}
func (MultiMatch) node() {}
