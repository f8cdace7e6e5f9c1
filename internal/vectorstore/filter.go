package vectorstore

// MergeFilters combines two filter maps, with override taking precedence.
func MergeFilters(base, override map[string]interface{}) map[string]interface{} {
	if base == nil && override == nil {
		return nil
	}
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		result[k] = v
	}
	return result
}

// FilterBuilder provides a fluent interface for building query filters.
type FilterBuilder struct {
	filters map[string]interface{}
}

// NewFilterBuilder creates a new FilterBuilder.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make(map[string]interface{}),
	}
}

// With adds a key-value pair to the filter.
func (b *FilterBuilder) With(key string, value interface{}) *FilterBuilder {
	b.filters[key] = value
	return b
}

// WithMap merges an existing filter map.
func (b *FilterBuilder) WithMap(m map[string]interface{}) *FilterBuilder {
	for k, v := range m {
		b.filters[k] = v
	}
	return b
}

// Build returns the filter map, nil when empty.
func (b *FilterBuilder) Build() map[string]interface{} {
	if len(b.filters) == 0 {
		return nil
	}
	return b.filters
}
