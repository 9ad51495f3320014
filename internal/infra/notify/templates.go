package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Kind string

const (
	Welcome           Kind = "welcome"
	PasswordReset     Kind = "password_reset"
	OrderConfirmation Kind = "order_confirmation"
	OrderStatus       Kind = "order_status"
)

var subjects = map[Kind]string{
	Welcome:           "Welcome to the gallery!",
	PasswordReset:     "Your password reset token (valid for 10 min)",
	OrderConfirmation: "Your order is confirmed",
	OrderStatus:       "Your order has been updated",
}

// Message is a rendered email.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

var funcs = map[string]any{
	"default": defaultFn,
	"upper":   strings.ToUpper,
}

// Render produces the subject, text and HTML bodies for kind.
func Render(kind Kind, data map[string]any) (Message, error) {
	subject, ok := subjects[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}
	if s, ok := data["Subject"].(string); ok && s != "" {
		subject = s
	}

	name := string(kind)
	text, err := renderText(name+".txt.tmpl", data)
	if err != nil {
		return Message{}, err
	}
	html, err := renderHTML(name+".html.tmpl", data)
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, Text: text, HTML: html}, nil
}

func renderText(file string, data any) (string, error) {
	t, err := texttpl.New(file).Funcs(texttpl.FuncMap(funcs)).Option("missingkey=zero").ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(file string, data any) (string, error) {
	t, err := htmpl.New(file).Funcs(htmpl.FuncMap(funcs)).Option("missingkey=zero").ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
