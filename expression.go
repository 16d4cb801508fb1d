package postsearch

// Expression represents a composable filter expression.
// All Expressions are SearchOptions, but not all SearchOptions are Expressions.
type Expression interface {
	SearchOption
	// expr is a marker method to distinguish expressions from other options.
	expr()
}

type baseExpr struct{}

func (baseExpr) expr() {}

// AndExpr matches when every inner expression matches.
type AndExpr struct {
	baseExpr
	Exprs []Expression
}

// Apply implements the SearchOption interface for AndExpr.
func (a AndExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, a)
}

// And creates an AND expression combining multiple expressions.
func And(exprs ...Expression) Expression {
	return AndExpr{Exprs: exprs}
}

// OrExpr matches when at least one inner expression matches.
type OrExpr struct {
	baseExpr
	Exprs []Expression
}

// Apply implements the SearchOption interface for OrExpr.
func (o OrExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, o)
}

// Or creates an OR expression combining multiple expressions.
func Or(exprs ...Expression) Expression {
	return OrExpr{Exprs: exprs}
}

// NotExpr negates an expression.
type NotExpr struct {
	baseExpr
	Inner Expression
}

// Apply implements the SearchOption interface for NotExpr.
func (n NotExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, n)
}

// Not creates a NOT expression negating the given expression.
func Not(expr Expression) Expression {
	return NotExpr{Inner: expr}
}

// EqExpr matches posts whose field equals Value.
type EqExpr struct {
	baseExpr
	Field string
	Value interface{}
}

// Apply implements the SearchOption interface for EqExpr.
func (e EqExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, e)
}

// Eq creates an equality comparison expression.
func Eq(field string, value interface{}) Expression {
	return EqExpr{Field: field, Value: value}
}

// NeExpr matches posts whose field differs from Value.
type NeExpr struct {
	baseExpr
	Field string
	Value interface{}
}

// Apply implements the SearchOption interface for NeExpr.
func (n NeExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, n)
}

// Ne creates a not-equal comparison expression.
func Ne(field string, value interface{}) Expression {
	return NeExpr{Field: field, Value: value}
}

// ExistsExpr matches posts that carry a non-empty value for Field.
type ExistsExpr struct {
	baseExpr
	Field string
}

// Apply implements the SearchOption interface for ExistsExpr.
func (e ExistsExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, e)
}

// Exists creates a field existence check expression.
func Exists(field string) Expression {
	return ExistsExpr{Field: field}
}
