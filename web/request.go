package web

import (
	"bytes"
	"html/template"
	"net/http"
	"os"

	"github.com/wippyai/stl/diag"
)

// Request is one HTTP request as seen by the callback. It is only valid
// during the callback.
type Request struct {
	r    *http.Request
	log  *diag.Logger
	vars map[string]string

	header    http.Header
	body      []byte
	status    int
	responded bool
	debug     bool
}

func newRequest(r *http.Request, log *diag.Logger, debug bool) *Request {
	return &Request{
		r:      r,
		log:    log,
		debug:  debug,
		vars:   make(map[string]string),
		header: make(http.Header),
	}
}

func (q *Request) debugf(format string, args ...any) {
	if q.debug {
		q.log.Logf(format, args...)
	}
}

// URL returns the request path.
func (q *Request) URL() string {
	q.debugf("web_url: %s", q.r.URL.Path)
	return q.r.URL.Path
}

// Method returns the HTTP method.
func (q *Request) Method() string {
	return q.r.Method
}

// IsPost reports whether the request is a POST.
func (q *Request) IsPost() bool {
	return q.r.Method == http.MethodPost
}

// GetArg returns a query string argument.
func (q *Request) GetArg(name string) (string, bool) {
	return lookup(q.r.URL.Query(), name)
}

// PostArg returns a form field from the request body.
func (q *Request) PostArg(name string) (string, bool) {
	return lookup(q.r.PostForm, name)
}

// Header returns a request header.
func (q *Request) Header(name string) (string, bool) {
	return lookup(q.r.Header, http.CanonicalHeaderKey(name))
}

func lookup(values map[string][]string, name string) (string, bool) {
	v, ok := values[name]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// SetValue sets a variable for Template.
func (q *Request) SetValue(name, value string) {
	q.debugf("web_setvalue: %s %s", name, value)
	q.vars[name] = value
}

// HTML answers with html as text/html.
func (q *Request) HTML(html string) {
	q.debugf("web_html: %s", html)
	q.respond(http.StatusOK, "text/html", []byte(html))
}

// Template renders the html/template file with the values set by SetValue
// and answers with the result. A template that cannot be read or executed
// answers 500.
func (q *Request) Template(filename string) {
	q.debugf("web_template: %s", filename)

	tmpl, err := template.ParseFiles(filename)
	if err != nil {
		q.log.Logf("web_template: %v", err)
		q.Error(http.StatusInternalServerError, "template unavailable")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, q.vars); err != nil {
		q.log.Logf("web_template: %s: %v", filename, err)
		q.Error(http.StatusInternalServerError, "template failed")
		return
	}
	q.respond(http.StatusOK, "text/html", buf.Bytes())
}

// File answers with the contents of filename as ctype. A missing file
// answers 404.
func (q *Request) File(filename, ctype string) {
	q.debugf("web_file: %s, type %s", filename, ctype)

	data, err := os.ReadFile(filename)
	if err != nil {
		q.log.Logf("web_file: couldn't open file %s", filename)
		q.Error(http.StatusNotFound, "file not found")
		return
	}
	q.debugf("file is %d bytes", len(data))
	q.header.Set("Connection", "close")
	q.respond(http.StatusOK, ctype, data)
}

// Data answers with data as ctype.
func (q *Request) Data(data []byte, ctype string) {
	q.debugf("web_data: %d bytes, type %s", len(data), ctype)
	q.respond(http.StatusOK, ctype, append([]byte(nil), data...))
}

// Error answers with status code and a plain text message.
func (q *Request) Error(code int, msg string) {
	q.debugf("web_error: %d %s", code, msg)
	q.respond(code, "text/plain; charset=utf-8", []byte(msg+"\n"))
}

// respond records the answer. A later answer replaces an earlier one.
func (q *Request) respond(status int, ctype string, body []byte) {
	q.status = status
	q.header.Set("Content-Type", ctype)
	q.body = body
	q.responded = true
}

func (q *Request) write(w http.ResponseWriter) {
	for k, v := range q.header {
		w.Header()[k] = v
	}
	w.WriteHeader(q.status)
	_, _ = w.Write(q.body)
}
