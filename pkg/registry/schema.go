// pkg/registry/schema.go
package registry

// TemplateRegistry is the on-disk catalogue of notification templates.
type TemplateRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Templates   []Template `json:"templates"`

	index map[string]Template
}

// Template renders one notification type. Title and Body use {{placeholder}} syntax;
// EmailSubject falls back to Title when empty.
type Template struct {
	Type         string   `json:"type"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	EmailSubject string   `json:"emailSubject,omitempty"`
	Channels     []string `json:"channels,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Delivery channels a template may opt into besides the in-app inbox.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// Wants reports whether the template opts into the channel.
func (t Template) Wants(channel string) bool {
	for _, c := range t.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

func (t Template) Subject() string {
	if t.EmailSubject != "" {
		return t.EmailSubject
	}
	return t.Title
}
