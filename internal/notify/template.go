// Package notify builds the welcome notification sent to new beta signups.
package notify

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed welcome.yaml
var defaultTemplate []byte

var ErrInvalidTemplate = errors.New("invalid welcome template")

// Contact is a named mailbox.
type Contact struct {
	Name  string `json:"name,omitempty" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Notification is the provider request for one transactional email.
type Notification struct {
	Sender      Contact   `json:"sender"`
	To          []Contact `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
	TextContent string    `json:"textContent"`
	Tags        []string  `json:"tags,omitempty"`
}

// Template holds the fixed parts of the welcome notification.
type Template struct {
	Sender  Contact  `yaml:"sender"`
	Subject string   `yaml:"subject"`
	Tags    []string `yaml:"tags"`
	HTML    string   `yaml:"html"`
	Text    string   `yaml:"text"`
}

// Load reads a template from path. An empty path loads the built-in welcome
// template.
func Load(path string) (*Template, error) {
	data := defaultTemplate
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates a YAML template.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	switch {
	case t.Sender.Email == "":
		return nil, fmt.Errorf("%w: sender email is required", ErrInvalidTemplate)
	case t.Subject == "":
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidTemplate)
	case t.HTML == "" && t.Text == "":
		return nil, fmt.Errorf("%w: html or text body is required", ErrInvalidTemplate)
	}
	return &t, nil
}

// Render addresses the template to one recipient, named after the local part
// of the address.
func (t *Template) Render(email string) Notification {
	name, _, _ := strings.Cut(email, "@")
	return Notification{
		Sender:      t.Sender,
		To:          []Contact{{Email: email, Name: name}},
		Subject:     t.Subject,
		HTMLContent: t.HTML,
		TextContent: t.Text,
		Tags:        append([]string(nil), t.Tags...),
	}
}
