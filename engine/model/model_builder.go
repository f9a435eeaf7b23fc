package model

// ModelBuilderOption is a function that configures a Model instance during construction.
type ModelBuilderOption func(*model)

// WithName is an option builder that overrides the model name.
//
// Parameters:
//   - name: the name to assign
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		if name != "" {
			m.name = name
		}
	}
}
