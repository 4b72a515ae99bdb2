package session

import (
	"fmt"
	"strings"
)

// Sentinels substituted when an element carries no usable text.
const (
	NoLabel   = "No label"
	NoContent = "No content"
)

// Element holds the metadata read from an interacted DOM element at event time.
type Element struct {
	Tag         string `json:"tag"`
	ID          string `json:"id"`
	ClassName   string `json:"class_name"`
	AriaLabel   string `json:"aria_label"`
	LabelAttr   string `json:"label_attr"` // value of a plain label="" attribute
	InnerText   string `json:"inner_text"`
	TextContent string `json:"text_content"`
}

// Describe summarises an element's identity as tag, id and class list.
func Describe(el Element) string {
	tag := el.Tag
	if tag == "" {
		tag = "UNKNOWN"
	}
	return fmt.Sprintf("Tag: %s\nID: %s\nClasses: %s\n", strings.ToUpper(tag), el.ID, el.ClassName)
}

// ResolveLabel returns the first non-empty candidate in priority order:
// accessibility label, label attribute, visible text, text content.
// Whitespace-only candidates count as empty.
func ResolveLabel(ariaLabel, labelAttr, innerText, textContent string) string {
	for _, c := range []string{ariaLabel, labelAttr, innerText, textContent} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return NoLabel
}

// ResolveContent returns textContent, or NoContent when it is empty.
func ResolveContent(textContent string) string {
	if strings.TrimSpace(textContent) == "" {
		return NoContent
	}
	return textContent
}
