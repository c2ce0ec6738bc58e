package platescan

import "errors"

var (
	// ErrClassificationUnavailable means no usable candidate came back from the classifier. Fatal to a run.
	ErrClassificationUnavailable = errors.New("classification unavailable")

	// ErrRecipeUnresolved means every recipe strategy failed.
	ErrRecipeUnresolved = errors.New("recipe unresolved")

	// ErrNutritionUnavailable means both database lookup and estimation failed.
	ErrNutritionUnavailable = errors.New("nutrition unavailable")

	// ErrInvalidQuantity is returned for a requested quantity that is not positive and finite.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidClarification is returned when a clarification choice is blank.
	ErrInvalidClarification = errors.New("invalid clarification")

	ErrNotFound = errors.New("not found")

	// ErrMalformedOutput is returned when a remote service answers with something that cannot be used.
	ErrMalformedOutput = errors.New("malformed output")
)
