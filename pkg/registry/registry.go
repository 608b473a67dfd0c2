// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// LoadRegistry reads a template registry from a JSON file.
func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*TemplateRegistry, error) {
	var reg TemplateRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	for _, t := range reg.Templates {
		if t.Type == "" {
			return nil, fmt.Errorf("template without type in registry %s", reg.Version)
		}
	}
	reg.reindex()
	return &reg, nil
}

// LoadOrDefault overlays the file's templates on the built-in ones. An empty path
// yields the defaults.
func LoadOrDefault(path string) (*TemplateRegistry, error) {
	reg := Default()
	if path == "" {
		return reg, nil
	}
	file, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	reg.Version = file.Version
	reg.LastUpdated = file.LastUpdated
	for _, t := range file.Templates {
		reg.Put(t)
	}
	return reg, nil
}

// Lookup returns the template for a notification type.
func (r *TemplateRegistry) Lookup(notificationType string) (Template, bool) {
	if r.index == nil {
		r.reindex()
	}
	t, ok := r.index[notificationType]
	return t, ok
}

// Put adds or replaces a template.
func (r *TemplateRegistry) Put(t Template) {
	if r.index == nil {
		r.reindex()
	}
	if _, exists := r.index[t.Type]; exists {
		for i := range r.Templates {
			if r.Templates[i].Type == t.Type {
				r.Templates[i] = t
			}
		}
	} else {
		r.Templates = append(r.Templates, t)
	}
	r.index[t.Type] = t
}

func (r *TemplateRegistry) reindex() {
	r.index = make(map[string]Template, len(r.Templates))
	for _, t := range r.Templates {
		r.index[t.Type] = t
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Render substitutes {{key}} placeholders from data in a single pass over the
// template. Placeholders without a value are removed; substituted values are never
// scanned again, so braces in user text come through verbatim.
func Render(tmpl string, data map[string]interface{}) string {
	result := placeholderPattern.ReplaceAllStringFunc(tmpl, func(placeholder string) string {
		key := strings.TrimSpace(placeholder[2 : len(placeholder)-2])
		switch val := data[key].(type) {
		case nil:
			return ""
		case string:
			return val
		default:
			return fmt.Sprintf("%v", val)
		}
	})
	return strings.Join(strings.Fields(result), " ")
}

// Default returns the built-in templates, one per notification type.
func Default() *TemplateRegistry {
	reg := &TemplateRegistry{
		Version: "builtin",
		Templates: []Template{
			{
				Type:     "consultant_assigned",
				Title:    "Consultant assigned",
				Body:     "{{consultantName}} is now handling application {{applicationId}}.",
				Channels: []string{ChannelEmail},
			},
			{
				Type:     "consultant_unassigned",
				Title:    "Consultant unassigned",
				Body:     "Consultant {{consultantId}} no longer handles application {{applicationId}}. {{reason}}",
				Channels: []string{ChannelEmail},
			},
			{
				Type:     "message_posted",
				Title:    "New message",
				Body:     "There is a new message in the room for application {{applicationId}}.",
				Channels: []string{ChannelPush},
			},
			{
				Type:     "document_uploaded",
				Title:    "Document uploaded",
				Body:     "{{documentName}} was uploaded to application {{applicationId}}.",
				Channels: []string{ChannelPush},
			},
			{
				Type:  "document_reviewed",
				Title: "Document reviewed",
				Body:  "{{documentName}} on application {{applicationId}} was reviewed.",
			},
			{
				Type:     "status_changed",
				Title:    "Application status updated",
				Body:     "Application {{applicationId}} is now {{applicationStatus}}.",
				Channels: []string{ChannelEmail, ChannelPush},
			},
			{
				Type:  "priority_changed",
				Title: "Priority changed",
				Body:  "Application {{applicationId}} priority is now {{roomPriority}}. {{justification}}",
			},
		},
	}
	reg.reindex()
	return reg
}

// Validate checks that every template has a known type, a title and a body, that no
// type appears twice, and that only known channels are requested.
func (r *TemplateRegistry) Validate() error {
	known := Default()
	seen := make(map[string]bool, len(r.Templates))
	for _, t := range r.Templates {
		if _, ok := known.Lookup(t.Type); !ok {
			return fmt.Errorf("unknown notification type: %s", t.Type)
		}
		if seen[t.Type] {
			return fmt.Errorf("duplicate template type: %s", t.Type)
		}
		seen[t.Type] = true

		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("template %s missing required field: title", t.Type)
		}
		if strings.TrimSpace(t.Body) == "" {
			return fmt.Errorf("template %s missing required field: body", t.Type)
		}
		for _, c := range t.Channels {
			if c != ChannelEmail && c != ChannelPush {
				return fmt.Errorf("template %s has unknown channel: %s", t.Type, c)
			}
		}
	}
	return nil
}
