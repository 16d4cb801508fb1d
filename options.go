package postsearch

// SearchOption represents a search configuration option.
type SearchOption interface {
	Apply(*SearchConfig)
}

// SearchConfig holds all search configuration parameters.
type SearchConfig struct {
	// Limit specifies the maximum number of results to return.
	Limit int

	// Offset specifies the number of results to skip for pagination.
	Offset int

	// Sort specifies sorting configuration.
	Sort []SortField

	// Filters contains filter expressions to apply.
	Filters []Expression
}

// NewSearchConfig applies opts over an empty configuration.
func NewSearchConfig(opts ...SearchOption) *SearchConfig {
	cfg := &SearchConfig{}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return cfg
}

// SortField represents a field to sort by.
type SortField struct {
	// Field is the name of the field to sort by. "_score" sorts by relevance.
	Field string
	// Desc indicates whether to sort in descending order (true) or ascending order (false).
	Desc bool
}

type optionFunc func(*SearchConfig)

func (f optionFunc) Apply(cfg *SearchConfig) {
	f(cfg)
}

// WithLimit sets the maximum number of results to return.
func WithLimit(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Limit = n
	})
}

// WithOffset sets the number of results to skip for pagination.
func WithOffset(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Offset = n
	})
}

// WithSort adds a sort field to the search.
func WithSort(field string, desc bool) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Sort = append(cfg.Sort, SortField{Field: field, Desc: desc})
	})
}

// OfType restricts the search to one post type.
func OfType(postType string) Expression {
	return Eq(FieldPostType, postType)
}

// WithStatus restricts the search to posts in the given status.
func WithStatus(status string) Expression {
	return Eq(FieldStatus, status)
}
