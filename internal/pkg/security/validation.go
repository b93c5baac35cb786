// Package security provides security utilities for input validation,
// sanitization, and sensitive data masking.
package security

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Validation limits.
const (
	// Annotator name limits. The name becomes part of the annotation
	// filename (<name>_annotations.jsonl), so it follows filename rules.
	MinAnnotatorNameLength = 1
	MaxAnnotatorNameLength = 64

	// Keyword limits for taxonomy search.
	MinKeywordLength = 1
	MaxKeywordLength = 200

	// Problem id limits.
	MaxProblemIDLength = 256

	// Top-k limits for the baseline predictor.
	MinTopK     = 1
	MaxTopK     = 100
	DefaultTopK = 3

	// Standard code limits. Real CCSS codes top out around 12 characters;
	// the cap only guards against garbage input.
	MaxCodeLength = 64

	// Cap on standards per annotation submission.
	MaxStandardsPerAnnotation = 50
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Constraint, e.Value)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Constraint)
}

// annotatorNameRegex matches valid annotator names: alphanumeric, hyphen,
// underscore, must start with alphanumeric.
var annotatorNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateAnnotatorName validates an annotator name.
// Requirements: Required, 1-64 chars, alphanumeric + hyphen + underscore,
// must start with alphanumeric. Anything looser would let the name escape
// the annotations directory when it is joined into a filename.
func ValidateAnnotatorName(name string) error {
	if name == "" {
		return &ValidationError{
			Field:      "annotator",
			Constraint: "required",
		}
	}

	if len(name) > MaxAnnotatorNameLength {
		return &ValidationError{
			Field:      "annotator",
			Value:      len(name),
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxAnnotatorNameLength),
		}
	}

	if !annotatorNameRegex.MatchString(name) {
		return &ValidationError{
			Field:      "annotator",
			Value:      SanitizeForLog(name),
			Constraint: "must contain only alphanumeric characters, hyphens, and underscores, and start with alphanumeric",
		}
	}

	return nil
}

// ValidateKeyword validates a taxonomy search keyword.
// Requirements: Required, 1-200 chars, valid UTF-8.
func ValidateKeyword(keyword string) error {
	if keyword == "" {
		return &ValidationError{
			Field:      "keyword",
			Constraint: "required",
		}
	}

	length := utf8.RuneCountInString(keyword)
	if length > MaxKeywordLength {
		return &ValidationError{
			Field:      "keyword",
			Value:      length,
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxKeywordLength),
		}
	}

	if !utf8.ValidString(keyword) {
		return &ValidationError{
			Field:      "keyword",
			Constraint: "must be valid UTF-8",
		}
	}

	return nil
}

// ValidateProblemID validates a problem id from a client request.
// Requirements: Required, <= 256 chars, no control characters.
func ValidateProblemID(id string) error {
	if id == "" {
		return &ValidationError{
			Field:      "problem_id",
			Constraint: "required",
		}
	}

	if len(id) > MaxProblemIDLength {
		return &ValidationError{
			Field:      "problem_id",
			Value:      len(id),
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxProblemIDLength),
		}
	}

	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return &ValidationError{
				Field:      "problem_id",
				Value:      SanitizeForLog(id),
				Constraint: "must not contain control characters",
			}
		}
	}

	return nil
}

// ValidateTopK validates the baseline top-k parameter.
// Requirements: 1-100.
func ValidateTopK(topK int) error {
	if topK < MinTopK {
		return &ValidationError{
			Field:      "k",
			Value:      topK,
			Constraint: fmt.Sprintf("minimum value is %d", MinTopK),
		}
	}

	if topK > MaxTopK {
		return &ValidationError{
			Field:      "k",
			Value:      topK,
			Constraint: fmt.Sprintf("maximum value is %d", MaxTopK),
		}
	}

	return nil
}

// AnnotateRequestValidator provides validation for annotation submissions.
type AnnotateRequestValidator struct {
	ProblemID string
	Codes     []string
}

// Validate validates all fields in the annotation submission.
func (v *AnnotateRequestValidator) Validate() error {
	if err := ValidateProblemID(v.ProblemID); err != nil {
		return err
	}

	if len(v.Codes) > MaxStandardsPerAnnotation {
		return &ValidationError{
			Field:      "standards",
			Value:      len(v.Codes),
			Constraint: fmt.Sprintf("maximum is %d standards per annotation", MaxStandardsPerAnnotation),
		}
	}

	for _, code := range v.Codes {
		if code == "" {
			return &ValidationError{
				Field:      "standards",
				Constraint: "codes must be non-empty",
			}
		}
		if len(code) > MaxCodeLength {
			return &ValidationError{
				Field:      "standards",
				Value:      SanitizeForLog(code),
				Constraint: fmt.Sprintf("maximum code length is %d characters", MaxCodeLength),
			}
		}
	}

	return nil
}
