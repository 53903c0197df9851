package main

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"staff-portal/internal/middleware"
	"staff-portal/internal/models"
)

// resolveTemplatePath falls back to the repo root so tests running from
// cmd/api find the templates.
func resolveTemplatePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		p2 := filepath.Join("..", "..", path)
		if _, err := os.Stat(p2); err == nil {
			return p2
		}
	}
	return path
}

func toJSON(v interface{}) template.HTML {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.HTML(b)
}

// money formats an amount with thousands separators and no pence.
func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 0, 64)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-£" + b.String()
	}
	return "£" + b.String()
}

// clock returns the HH:MM part of an ISO timestamp.
func clock(iso *string) string {
	if iso == nil {
		return "–"
	}
	s := *iso
	if i := strings.IndexByte(s, 'T'); i >= 0 && len(s) >= i+6 {
		return s[i+1 : i+6]
	}
	return s
}

var funcs = template.FuncMap{
	"json":  toJSON,
	"money": money,
	"clock": clock,
}

func (a *app) parse(files ...string) (*template.Template, error) {
	var allFiles []string
	allFiles = append(allFiles, resolveTemplatePath(filepath.Join(a.templateDir, "layout.html")))
	for _, f := range files {
		allFiles = append(allFiles, resolveTemplatePath(filepath.Join(a.templateDir, f)))
	}
	return template.New("layout").Funcs(funcs).ParseFiles(allFiles...)
}

type page struct {
	Data      interface{}
	CSRFToken string
	User      *models.User
}

func (a *app) render(w http.ResponseWriter, r *http.Request, data interface{}, files ...string) {
	a.renderStatus(w, r, http.StatusOK, data, files...)
}

func (a *app) renderStatus(w http.ResponseWriter, r *http.Request, status int, data interface{}, files ...string) {
	tmpl, err := a.parse(files...)
	if err != nil {
		http.Error(w, "Template Parse Error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	user, _ := middleware.UserFrom(r.Context())
	wrapper := page{Data: data, CSRFToken: middleware.CSRFToken(r.Context()), User: user}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", wrapper); err != nil {
		http.Error(w, "Template Execute Error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// fragment executes one named template from files into a string.
func (a *app) fragment(name string, data interface{}, files ...string) (string, error) {
	tmpl, err := a.parse(files...)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
