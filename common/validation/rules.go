// Package validation provides image validation rules evaluated against
// probed metadata before an attachment is saved.
package validation

import (
	"fmt"
	"math"

	"github.com/mediaforge/renditions/common/imaging"
)

// Violation describes one failed rule
type Violation struct {
	Rule    string
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// Rule checks one constraint over image metadata. A nil return means
// the constraint holds.
type Rule interface {
	Check(meta *imaging.Metadata) *Violation
}

type ruleFunc struct {
	name  string
	check func(meta *imaging.Metadata) *Violation
}

func (r ruleFunc) Check(meta *imaging.Metadata) *Violation {
	return r.check(meta)
}

func dimensionRule(name string, threshold int, check func(meta *imaging.Metadata) *Violation) (Rule, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%s: threshold must be positive, got %d", name, threshold)
	}
	return ruleFunc{name: name, check: check}, nil
}

// MinImageWidth requires the image to be at least width pixels wide
func MinImageWidth(width int) (Rule, error) {
	return dimensionRule("min_image_width", width, func(meta *imaging.Metadata) *Violation {
		if meta.Width < width {
			return &Violation{
				Rule:    "min_image_width",
				Message: fmt.Sprintf("image width %dpx is below the minimum of %dpx", meta.Width, width),
			}
		}
		return nil
	})
}

// MinImageHeight requires the image to be at least height pixels tall
func MinImageHeight(height int) (Rule, error) {
	return dimensionRule("min_image_height", height, func(meta *imaging.Metadata) *Violation {
		if meta.Height < height {
			return &Violation{
				Rule:    "min_image_height",
				Message: fmt.Sprintf("image height %dpx is below the minimum of %dpx", meta.Height, height),
			}
		}
		return nil
	})
}

// MaxImageWidth rejects images wider than width pixels
func MaxImageWidth(width int) (Rule, error) {
	return dimensionRule("max_image_width", width, func(meta *imaging.Metadata) *Violation {
		if meta.Width > width {
			return &Violation{
				Rule:    "max_image_width",
				Message: fmt.Sprintf("image width %dpx exceeds the maximum of %dpx", meta.Width, width),
			}
		}
		return nil
	})
}

// MaxImageHeight rejects images taller than height pixels
func MaxImageHeight(height int) (Rule, error) {
	return dimensionRule("max_image_height", height, func(meta *imaging.Metadata) *Violation {
		if meta.Height > height {
			return &Violation{
				Rule:    "max_image_height",
				Message: fmt.Sprintf("image height %dpx exceeds the maximum of %dpx", meta.Height, height),
			}
		}
		return nil
	})
}

// aspectRatioTolerance absorbs rounding from integer pixel dimensions
const aspectRatioTolerance = 0.01

// ImageAspectRatio requires width/height to match ratio within a small
// tolerance
func ImageAspectRatio(ratio float64) (Rule, error) {
	if ratio <= 0 {
		return nil, fmt.Errorf("image_aspect_ratio: ratio must be positive, got %v", ratio)
	}
	return ruleFunc{name: "image_aspect_ratio", check: func(meta *imaging.Metadata) *Violation {
		if meta.Height == 0 {
			return &Violation{Rule: "image_aspect_ratio", Message: "image has zero height"}
		}
		actual := float64(meta.Width) / float64(meta.Height)
		if math.Abs(actual-ratio) > aspectRatioTolerance {
			return &Violation{
				Rule:    "image_aspect_ratio",
				Message: fmt.Sprintf("image aspect ratio %.3f does not match the required %.3f", actual, ratio),
			}
		}
		return nil
	}}, nil
}

// Validate probes buf once and runs every rule against the result. A
// buffer that is not a decodable supported image fails with a single
// violation before any rule runs.
func Validate(buf []byte, rules ...Rule) []Violation {
	meta, ok := imaging.Probe(buf)
	if !ok {
		return []Violation{{
			Rule:    "decodable_image",
			Message: "buffer is not a decodable image in a supported format",
		}}
	}

	var violations []Violation
	for _, rule := range rules {
		if v := rule.Check(meta); v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}
