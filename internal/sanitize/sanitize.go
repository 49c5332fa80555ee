// Package sanitize cleans merchant-supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	richPolicyOnce sync.Once
	richPolicy     *bluemonday.Policy
)

// Text trims input and strips every HTML tag, leaving plain text.
func Text(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getStrictPolicy().Sanitize(value)))
}

// TextPtr is Text for optional fields.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	value := Text(*input)
	return &value
}

// RichText keeps basic formatting markup in long descriptions and drops
// scripts, styles and event handlers.
func RichText(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	return getRichPolicy().Sanitize(value)
}

// RichTextPtr is RichText for optional fields.
func RichTextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	value := RichText(*input)
	return &value
}

func getStrictPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

func getRichPolicy() *bluemonday.Policy {
	richPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")
		richPolicy = policy
	})
	return richPolicy
}
