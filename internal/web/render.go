package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/temirov/ctxrepo/internal/output"
	"github.com/temirov/ctxrepo/internal/session"
	"github.com/temirov/ctxrepo/internal/types"
)

const (
	templatePattern = "templates/*.html"

	templateClonePage      = "clone_page"
	templateRepositoryPage = "repository_page"
	templateTree           = "tree"
	templateTotals         = "totals"
	templateCombined       = "combined"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"humanBytes": func(byteCount int64) string {
		if byteCount < 0 {
			byteCount = 0
		}
		return humanize.Bytes(uint64(byteCount))
	},
	"comma": humanize.Comma,
}).ParseFS(templateFiles, templatePattern))

// nodeView is a tree node prepared for the checkbox list.
type nodeView struct {
	Path        string
	Name        string
	IsDirectory bool
	Skipped     bool
	Checked     bool
	ByteSize    int64
	TokenCount  int
	Children    []nodeView
}

type repositoryPageView struct {
	Repository session.Repository
	Extensions []types.ExtensionAggregate
	TotalsLine string
	Totals     types.Totals
	Tree       nodeView
}

type combinedView struct {
	Text   string
	Totals types.Totals
}

func newNodeView(node *types.TreeNode, checked bool) nodeView {
	view := nodeView{
		Path:        node.Path,
		Name:        node.Name,
		IsDirectory: node.IsDirectory(),
		Skipped:     node.Skipped,
		Checked:     checked,
		ByteSize:    node.ByteSize,
		TokenCount:  node.TokenCount,
	}
	for _, child := range node.Children {
		view.Children = append(view.Children, newNodeView(child, checked))
	}
	return view
}

func newRepositoryPageView(snapshot *session.Snapshot) repositoryPageView {
	totals := snapshot.Calculator.Totals([]string{snapshot.Scan.Root}, nil)
	return repositoryPageView{
		Repository: snapshot.Repository,
		Extensions: output.SortedExtensions(snapshot.Scan.Extensions),
		TotalsLine: output.FormatTotals(totals),
		Totals:     totals,
		Tree:       newNodeView(snapshot.Tree, true),
	}
}

// renderHTML executes the named template into a buffer first so that a
// template failure still produces a clean error response.
func (server Server) renderHTML(writer http.ResponseWriter, name string, data interface{}) {
	var buffer bytes.Buffer
	if executeErr := pageTemplates.ExecuteTemplate(&buffer, name, data); executeErr != nil {
		server.writeError(writer, executeErr)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeHTML)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(buffer.Bytes())
}
