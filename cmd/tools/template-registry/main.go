// cmd/tools/template-registry/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"consultant-workflow/pkg/registry"
)

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, validateCmd, renderCmd} {
		fs.StringVar(&registryPath, "path", "configs/notification-templates.json", "Path to registry file")
	}

	// Add command flags
	typeAdd := addCmd.String("type", "", "Notification type (e.g., document_reviewed)")
	title := addCmd.String("title", "", "Title template")
	body := addCmd.String("body", "", "Body template with {{placeholders}}")
	subject := addCmd.String("subject", "", "Email subject (defaults to title)")
	channels := addCmd.String("channels", "", "Comma separated delivery channels (email, push)")

	// Update command flags
	typeUpdate := updateCmd.String("type", "", "Notification type to update")
	field := updateCmd.String("field", "", "Field to update (title, body, subject, channels, tags)")
	value := updateCmd.String("value", "", "New value for the field")

	// Render command flags
	typeRender := renderCmd.String("type", "", "Notification type to preview")
	data := renderCmd.String("data", "{}", "JSON object with placeholder values")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *typeAdd == "" || *title == "" || *body == "" {
			fmt.Println("Error: type, title, and body are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		tmpl := registry.Template{
			Type:         *typeAdd,
			Title:        *title,
			Body:         *body,
			EmailSubject: *subject,
			Channels:     splitList(*channels),
		}
		if err := addTemplate(tmpl); err != nil {
			fmt.Printf("Error adding template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added template: %s\n", *typeAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *typeUpdate == "" || *field == "" {
			fmt.Println("Error: type and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateTemplate(*typeUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated template %s, field %s\n", *typeUpdate, *field)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "render":
		renderCmd.Parse(os.Args[2:])
		if err := renderTemplate(*typeRender, *data); err != nil {
			fmt.Printf("Error rendering template: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func addTemplate(tmpl registry.Template) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.TemplateRegistry{Version: "1.0.0"}
	}

	if _, exists := reg.Lookup(tmpl.Type); exists {
		return fmt.Errorf("template for type %s already exists", tmpl.Type)
	}
	reg.Put(tmpl)
	if err := reg.Validate(); err != nil {
		return err
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

func updateTemplate(notificationType, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	tmpl, ok := reg.Lookup(notificationType)
	if !ok {
		return fmt.Errorf("template for type %s not found", notificationType)
	}

	switch field {
	case "title":
		tmpl.Title = value
	case "body":
		tmpl.Body = value
	case "subject":
		tmpl.EmailSubject = value
	case "channels":
		tmpl.Channels = splitList(value)
	case "tags":
		tmpl.Tags = splitList(value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	reg.Put(tmpl)
	if err := reg.Validate(); err != nil {
		return err
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Templates) == 0 {
		return fmt.Errorf("registry contains no templates")
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	var missing []string
	for _, t := range registry.Default().Templates {
		if _, ok := reg.Lookup(t.Type); !ok {
			missing = append(missing, t.Type)
		}
	}
	fmt.Printf("Registry validation passed. Found %d templates.\n", len(reg.Templates))
	if len(missing) > 0 {
		fmt.Printf("Built-in defaults used for: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

func renderTemplate(notificationType, rawData string) error {
	if notificationType == "" {
		return fmt.Errorf("type is required")
	}
	reg, err := registry.LoadOrDefault(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	tmpl, ok := reg.Lookup(notificationType)
	if !ok {
		return fmt.Errorf("template for type %s not found", notificationType)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(rawData), &data); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}

	fmt.Printf("Title:    %s\n", registry.Render(tmpl.Title, data))
	fmt.Printf("Subject:  %s\n", registry.Render(tmpl.Subject(), data))
	fmt.Printf("Body:     %s\n", registry.Render(tmpl.Body, data))
	fmt.Printf("Channels: %s\n", strings.Join(tmpl.Channels, ", "))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// saveRegistry handles saving the registry to file
func saveRegistry(reg *registry.TemplateRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: template-registry <command> [flags]

Commands:
  add      Add a notification template
  update   Update a template field
  validate Validate the registry file
  render   Preview a rendered template
  help     Show this help message

Examples:
  template-registry add -type document_reviewed -title "Document reviewed" -body "{{documentName}} was reviewed." -channels push
  template-registry update -type status_changed -field subject -value "Your application status changed"
  template-registry validate -path configs/notification-templates.json
  template-registry render -type status_changed -data '{"applicationId":"app-1","applicationStatus":"approved"}'

Use 'template-registry <command> -h' for more information about a command.
`)
}
