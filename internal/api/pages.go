package api

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const pageStyle = `
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; text-align: center; }
        .button-container { margin-top: 20px; }
        button { background-color: darkred; color: #fff; border: none; padding: 10px 20px; border-radius: 5px; cursor: pointer; font-size: 16px; margin: 0 10px; }
        button:hover { background-color: red; }
        .notice { color: #8a4b00; }
        .error-id { font-family: monospace; }`

var intakePage = template.Must(template.New("intake").Parse(`<html>
<head>
    <style>` + pageStyle + `
    </style>
</head>
<body>
{{- range .Notices}}
    <p class="notice">{{.}}</p>
{{- end}}
    <h1>Data Submitted Successfully</h1>
    <div class="button-container">
        <a href="/enter_data.html"><button>Go to Enter Data</button></a>
        <a href="/home.html"><button>Go to Home</button></a>
    </div>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<html>
<head>
    <style>` + pageStyle + `
    </style>
</head>
<body>
    <h1>{{.Message}}</h1>
    <p>Reference: <span class="error-id">{{.ErrorID}}</span></p>
    <div class="button-container">
        <a href="/home.html"><button>Go to Home</button></a>
    </div>
</body>
</html>
`))

const invalidCredentialsHTML = `<h1>Invalid credentials. Please <a href="/login">try again</a>.</h1>`

type intakePageData struct {
	Notices []string
}

type errorPageData struct {
	Message string
	ErrorID string
}

// renderHTML executes tmpl into a buffer first so a template failure never
// leaves a half-written page behind.
func (h *Handler) renderHTML(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		h.log.Error("render template", zap.String("template", tmpl.Name()), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// servePage serves a file from the public directory.
func (h *Handler) servePage(name string) http.HandlerFunc {
	path := filepath.Join(h.publicDir, name)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}

// gatedPages are served only through requireSession.
var gatedPages = []string{"home.html", "enter_data.html", "screening.html"}

// publicFS is the fallback file system. It hides the gated pages so no
// spelling of their path reaches them without a session.
type publicFS struct {
	root   http.FileSystem
	hidden map[string]bool
}

func newPublicFS(dir string) publicFS {
	hidden := make(map[string]bool, len(gatedPages))
	for _, name := range gatedPages {
		hidden["/"+name] = true
	}
	return publicFS{root: http.Dir(dir), hidden: hidden}
}

func (p publicFS) Open(name string) (http.File, error) {
	if p.hidden[strings.ToLower(path.Clean("/"+name))] {
		return nil, fs.ErrNotExist
	}
	return p.root.Open(name)
}
