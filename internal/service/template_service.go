// internal/service/template_service.go
package service

import (
	"strings"
)

// DefaultKeyTemplate lays uploads out as one folder per catalog kind.
const DefaultKeyTemplate = "{kind}/{id}{ext}"

// RenderTemplate replaces every {name} placeholder with data[name]. Unknown
// placeholders are left in place.
func RenderTemplate(template string, data map[string]string) string {
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// objectKey renders the storage key for an upload. Slashes in values are
// flattened so a placeholder can never add a path segment.
func objectKey(template string, data map[string]string) string {
	if template == "" {
		template = DefaultKeyTemplate
	}
	clean := make(map[string]string, len(data))
	for k, v := range data {
		clean[k] = strings.ReplaceAll(v, "/", "-")
	}
	return strings.TrimLeft(RenderTemplate(template, clean), "/")
}
