package core

import (
	"bytes"
	"context"
	"embed"
	htmltmpl "html/template"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	//go:embed all:templates/email
	templateFS embed.FS

	templates    tmplCache
	templatesErr error
	tmplInit     sync.Once

	errTemplateNotFound = errors.New("email template not found")
)

const templateDir = "templates/email"

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is the notification gateway: one attempt per Send, no retry or queueing.
	EmailService interface {
		// Send delivers msg and returns the gateway message id.
		Send(ctx context.Context, msg *EmailMessage) (string, error)
		// Verify checks the gateway connectivity.
		Verify(ctx context.Context) error
	}
)

// ParseEmailTemplates parses the embedded templates once; later calls return the first result.
func ParseEmailTemplates() error {
	tmplInit.Do(func() {
		templates, templatesErr = parseTemplates()
	})
	return templatesErr
}

func (m *EmailMessage) getContextData(conf *Config) ContextData {
	return ContextData{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	if err := ParseEmailTemplates(); err != nil {
		return errors.Wrap(err, "parsing email templates")
	}
	entry, ok := templates[m.TemplateName]
	if !ok {
		return errors.Wrap(errTemplateNotFound, m.TemplateName)
	}

	data := m.getContextData(conf)
	if entry.text != nil && m.BodyStr == "" {
		var buff bytes.Buffer
		if err := entry.text.ExecuteTemplate(&buff, "base", data); err != nil {
			return errors.Wrap(err, "rendering text template")
		}
		m.TextContent = buff.String()
	}
	if entry.html != nil {
		var buff bytes.Buffer
		if err := entry.html.ExecuteTemplate(&buff, "base", data); err != nil {
			return errors.Wrap(err, "rendering html template")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// Recipient returns the first To address, the one notifications are addressed to.
func (m *EmailMessage) Recipient() string {
	if len(m.To) == 0 {
		return ""
	}
	return m.To[0].Address
}

func parseTemplates() (tmplCache, error) {
	cache := make(tmplCache)

	entries, err := templateFS.ReadDir(templateDir)
	if err != nil {
		return nil, err
	}
	for _, de := range entries {
		fname := de.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := cache[name]
		if !ok {
			entry = new(tmplCacheEntry)
			cache[name] = entry
		}
		fp := path.Join(templateDir, fname)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(templateFS, path.Join(templateDir, "_base.txt"), fp)
			if err != nil {
				return nil, errors.Wrap(err, fname)
			}
			entry.text = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(templateFS, path.Join(templateDir, "_base.gohtml"), fp)
			if err != nil {
				return nil, errors.Wrap(err, fname)
			}
			entry.html = tmpl.Option("missingkey=error")
		}
	}
	return cache, nil
}
