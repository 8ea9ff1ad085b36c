package filter

// Engine is the concrete predicate-construction capability handed to the
// selector algebra. It carries no state; a zero Engine is usable. Tests
// substitute fakes through the algebra's factory interface.
type Engine struct{}

// NewEngine creates a predicate engine instance.
func NewEngine() Engine {
	return Engine{}
}

// FeatureID builds a predicate identifying a feature by id.
func (Engine) FeatureID(id string) Predicate {
	return NewFeatureID(id)
}

// ParseExpression parses attribute expression text into a predicate.
func (Engine) ParseExpression(text string) (Predicate, error) {
	return ParseExpression(text)
}
