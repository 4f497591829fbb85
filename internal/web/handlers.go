package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ctxrepo/internal/combine"
	"github.com/temirov/ctxrepo/internal/output"
	"github.com/temirov/ctxrepo/internal/session"
)

const (
	formFieldURL           = "url"
	formFieldSelectedFiles = "selected_files"
	formFieldFileTypes     = "file_types"
)

var errMissingURL = errors.New("repository url is required")

func (server Server) handleIndex(writer http.ResponseWriter, request *http.Request) {
	snapshot, snapshotErr := server.manager.Snapshot()
	if snapshotErr != nil {
		server.renderHTML(writer, templateClonePage, nil)
		return
	}
	server.renderHTML(writer, templateRepositoryPage, newRepositoryPageView(snapshot))
}

func (server Server) handleClone(writer http.ResponseWriter, request *http.Request) {
	if parseErr := request.ParseForm(); parseErr != nil {
		server.writeError(writer, NewRequestError(http.StatusBadRequest, parseErr))
		return
	}
	url := strings.TrimSpace(request.PostForm.Get(formFieldURL))
	if url == "" {
		server.writeError(writer, NewRequestError(http.StatusBadRequest, errMissingURL))
		return
	}
	if _, cloneErr := server.manager.Clone(request.Context(), url); cloneErr != nil {
		if errors.Is(cloneErr, session.ErrInvalidRepositoryURL) {
			server.writeError(writer, NewRequestError(http.StatusBadRequest, cloneErr))
			return
		}
		server.writeError(writer, NewRequestError(http.StatusBadGateway, cloneErr))
		return
	}
	http.Redirect(writer, request, indexPath, http.StatusSeeOther)
}

func (server Server) handleUpdateTotals(writer http.ResponseWriter, request *http.Request) {
	snapshot, selectedPaths, excludedExtensions, requestErr := server.selectionFromRequest(request)
	if requestErr != nil {
		server.writeError(writer, requestErr)
		return
	}
	totals := snapshot.Calculator.Totals(selectedPaths, excludedExtensions)
	server.renderHTML(writer, templateTotals, output.FormatTotals(totals))
}

func (server Server) handleSelectAll(writer http.ResponseWriter, request *http.Request) {
	server.renderTree(writer, true)
}

func (server Server) handleUnselectAll(writer http.ResponseWriter, request *http.Request) {
	server.renderTree(writer, false)
}

func (server Server) renderTree(writer http.ResponseWriter, checked bool) {
	snapshot, snapshotErr := server.manager.Snapshot()
	if snapshotErr != nil {
		server.writeError(writer, snapshotErr)
		return
	}
	server.renderHTML(writer, templateTree, newNodeView(snapshot.Tree, checked))
}

func (server Server) handleCombine(writer http.ResponseWriter, request *http.Request) {
	snapshot, selectedPaths, excludedExtensions, requestErr := server.selectionFromRequest(request)
	if requestErr != nil {
		server.writeError(writer, requestErr)
		return
	}
	artifact, combineErr := combine.Combine(snapshot.Scan.Root, snapshot.Scan.Files, selectedPaths, excludedExtensions, combine.Options{Logger: server.logger})
	if combineErr != nil {
		server.writeError(writer, combineErr)
		return
	}
	server.renderHTML(writer, templateCombined, combinedView{Text: artifact.Text, Totals: artifact.Totals})
}

func (server Server) handleDelete(writer http.ResponseWriter, request *http.Request) {
	if deleteErr := server.manager.Delete(); deleteErr != nil {
		server.writeError(writer, deleteErr)
		return
	}
	http.Redirect(writer, request, indexPath, http.StatusSeeOther)
}

func (server Server) selectionFromRequest(request *http.Request) (*session.Snapshot, []string, []string, error) {
	snapshot, snapshotErr := server.manager.Snapshot()
	if snapshotErr != nil {
		return nil, nil, nil, snapshotErr
	}
	if parseErr := request.ParseForm(); parseErr != nil {
		return nil, nil, nil, NewRequestError(http.StatusBadRequest, parseErr)
	}
	return snapshot, request.PostForm[formFieldSelectedFiles], request.PostForm[formFieldFileTypes], nil
}

func (server Server) writeError(writer http.ResponseWriter, err error) {
	statusCode := statusCodeFromError(err)
	if statusCode >= http.StatusInternalServerError {
		server.logger.Error(logRequestFailed, zap.Error(err))
	} else {
		server.logger.Debug(logRequestFailed, zap.Error(err))
	}
	server.writeJSON(writer, statusCode, map[string]string{errorFieldName: errorMessage(err)})
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}
