package codebase

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/phpsense/config"
	"github.com/dhamidi/phpsense/php/completion"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "phpsense"

type LSPServer struct {
	codebase *Codebase
	cfg      *config.Config
	handler  protocol.Handler
	server   *server.Server
	version  string

	mu   sync.RWMutex
	docs map[string]string

	watcher *Watcher
	cancel  context.CancelFunc
}

func NewLSPServer(version string) *LSPServer {
	ls := &LSPServer{
		version: version,
		docs:    make(map[string]string),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	cfg, err := config.LoadDir(rootDir)
	if err != nil {
		log.Warning("using default configuration", "root", rootDir, "error", err)
		cfg = config.Default()
	}
	if cfg.Log.File != "" {
		logFile := cfg.Log.File
		if !filepath.IsAbs(logFile) {
			logFile = filepath.Join(rootDir, logFile)
		}
		commonlog.Initialize(cfg.Log.Verbosity, logFile)
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s: %w", rootDir, err)
	}
	ls.cfg = cfg
	ls.codebase = New(rootDir, opts)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    intPtr(int(protocol.TextDocumentSyncKindFull)),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(false),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{">", ":", "\\", "$"},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	bg, cancel := context.WithCancel(context.Background())
	ls.cancel = cancel
	notify := ctx.Notify

	go func() {
		stats, err := ls.codebase.Index(bg, nil)
		if err != nil {
			log.Error("initial index failed", "root", ls.codebase.Root(), "error", err)
			logMessage(notify, protocol.MessageTypeError, fmt.Sprintf("indexing failed: %s", err))
			return
		}
		logMessage(notify, protocol.MessageTypeInfo, fmt.Sprintf("indexed %d files, %d classes, %d functions",
			stats.Files, stats.Classes, stats.Functions))

		if !ls.cfg.Watch.Enabled {
			return
		}
		w, err := NewWatcher(ls.codebase, ls.cfg.Watch.Debounce, nil)
		if err != nil {
			log.Error("cannot start watcher", "error", err)
			return
		}
		if err := w.Start(bg); err != nil {
			log.Error("cannot start watcher", "error", err)
			w.Close()
			return
		}
		ls.mu.Lock()
		ls.watcher = w
		ls.mu.Unlock()
	}()
	return nil
}

func logMessage(notify glsp.NotifyFunc, typ protocol.MessageType, msg string) {
	if notify == nil {
		return
	}
	notify(protocol.ServerWindowLogMessage, protocol.LogMessageParams{
		Type:    typ,
		Message: msg,
	})
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	if ls.cancel != nil {
		ls.cancel()
	}
	ls.mu.Lock()
	w := ls.watcher
	ls.watcher = nil
	ls.mu.Unlock()
	if w != nil {
		w.Close()
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.setDocument(path, params.TextDocument.Text)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.setDocument(path, textChange.Text)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.mu.Lock()
	delete(ls.docs, path)
	ls.mu.Unlock()
	return nil
}

// textDocumentDidSave re-indexes in the background unless the watcher
// will pick the change up anyway.
func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	ls.mu.RLock()
	watching := ls.watcher != nil
	ls.mu.RUnlock()
	if watching || ls.codebase == nil {
		return nil
	}
	go func() {
		if _, err := ls.codebase.Index(context.Background(), nil); err != nil {
			log.Warning("re-index after save failed", "error", err)
		}
	}()
	return nil
}

func (ls *LSPServer) setDocument(path, text string) {
	ls.mu.Lock()
	ls.docs[path] = text
	ls.mu.Unlock()
}

// documentText returns the editor's copy of path, falling back to disk.
func (ls *LSPServer) documentText(path string) (string, bool) {
	ls.mu.RLock()
	text, ok := ls.docs[path]
	ls.mu.RUnlock()
	if ok {
		return text, true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	if ls.codebase == nil {
		return nil, nil
	}
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	text, ok := ls.documentText(path)
	if !ok {
		return nil, nil
	}

	line := int(params.Position.Line)
	results := ls.codebase.Complete(completion.Query{
		Line:     linePrefix(text, line, int(params.Position.Character)),
		File:     path,
		LineNo:   line + 1,
		MaxItems: ls.cfg.Completion.MaxItems,
	})
	if len(results) == 0 {
		return nil, nil
	}

	items := make([]protocol.CompletionItem, 0, len(results))
	for i, c := range results {
		items = append(items, toProtocolItem(c, i))
	}
	return items, nil
}

func toProtocolItem(c completion.Item, rank int) protocol.CompletionItem {
	kind := toProtocolKind(c.Category())
	detail := c.Detail()
	insertText := c.InsertText()
	format := protocol.InsertTextFormatPlainText
	sortText := fmt.Sprintf("%05d", rank)

	item := protocol.CompletionItem{
		Label:            c.Label(),
		Kind:             &kind,
		Detail:           &detail,
		InsertText:       &insertText,
		InsertTextFormat: &format,
		SortText:         &sortText,
	}
	if doc := c.Documentation(); doc != "" {
		item.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: doc,
		}
	}
	return item
}

func toProtocolKind(category completion.Category) protocol.CompletionItemKind {
	switch category {
	case completion.CategoryClass:
		return protocol.CompletionItemKindClass
	case completion.CategoryMethod:
		return protocol.CompletionItemKindMethod
	case completion.CategoryProperty:
		return protocol.CompletionItemKindProperty
	case completion.CategoryConstant:
		return protocol.CompletionItemKindConstant
	case completion.CategoryNamespace:
		return protocol.CompletionItemKindModule
	case completion.CategoryFunction:
		return protocol.CompletionItemKindFunction
	default:
		return protocol.CompletionItemKindText
	}
}

// linePrefix returns the text of line up to character, which counts
// UTF-16 code units.
func linePrefix(text string, line, character int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	l := strings.TrimSuffix(lines[line], "\r")
	units := 0
	for i, r := range l {
		if units >= character {
			return l[:i]
		}
		n := len(utf16.Encode([]rune{r}))
		if n < 0 {
			n = 1
		}
		units += n
	}
	return l
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *protocol.TextDocumentSyncKind {
	v := protocol.TextDocumentSyncKind(i)
	return &v
}
