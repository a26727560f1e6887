package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"mailc/config"
	"mailc/email"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	// Name is source file base name without extension.
	Name    string
	Title   string
	Subject string
	ID      string
	Meta    map[string]string
	// Index is position of the document in the batch, starting with 1.
	Index int
}

func buildValues(name config.TemplateFieldName, doc *email.Document, src string, index int) Values {
	v := Values{
		Context: string(name),
		Name:    strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Index:   index,
		Meta:    make(map[string]string),
	}
	if doc == nil {
		return v
	}
	v.ID = doc.RefID.String()
	if doc.Meta != nil {
		v.Title = doc.Meta.Title()
		v.Subject, _ = doc.Meta.Get("subject")
		for _, k := range doc.Meta.Keys() {
			v.Meta[k], _ = doc.Meta.Get(k)
		}
	}
	return v
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
