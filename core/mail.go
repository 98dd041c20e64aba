package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	templatesFS fs.FS
	textTmpls   *texttmpl.Template
	htmlTmpls   *htmltmpl.Template
	tmplInit    sync.Once
	tmplInitErr error
)

// SetTemplatesFS registers the filesystem holding the email templates
// (usually the embedded app FS). Must be called before any EmailMessage with
// a TemplateName is rendered.
func SetTemplatesFS(fsys fs.FS) {
	templatesFS = fsys
}

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func loadTemplates() error {
	tmplInit.Do(func() {
		if templatesFS == nil {
			tmplInitErr = errors.New("email templates FS not set")
			return
		}
		textTmpls, tmplInitErr = texttmpl.ParseFS(templatesFS, "templates/*.txt")
		if tmplInitErr != nil {
			return
		}
		htmlTmpls, tmplInitErr = htmltmpl.ParseFS(templatesFS, "templates/*.html")
	})
	return tmplInitErr
}

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmpl := textTmpls.Lookup(m.TemplateName + ".txt")
	if tmpl == nil {
		return nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return errors.Wrapf(err, "executing template %s.txt", m.TemplateName)
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML() error {
	if m.TemplateName == "" {
		return nil
	}

	tmpl := htmlTmpls.Lookup(m.TemplateName + ".html")
	if tmpl == nil {
		return nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return errors.Wrapf(err, "executing template %s.html", m.TemplateName)
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render resolves the message's TextContent and HTMLContent from its BodyStr
// or its named templates.
func (m *EmailMessage) Render() error {
	if m.TemplateName != "" {
		if err := loadTemplates(); err != nil {
			return err
		}
	}
	if err := m.renderText(); err != nil {
		return err
	}
	return m.renderHTML()
}

func (m *EmailMessage) HasRecipients() bool {
	return (len(m.To) + len(m.Cc) + len(m.Bcc)) > 0
}

func (m *EmailMessage) HasContent() bool {
	return (m.BodyStr != "") || (m.TextContent != "") || (m.HTMLContent != "") || (m.TemplateName != "")
}

func (m *EmailMessage) HasAttachments() bool {
	return len(m.Attachments) > 0
}
