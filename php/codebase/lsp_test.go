package codebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const lspSource = `<?php
namespace App;

class Foo {
    /** Runs it. */
    public function run($a) {}
    public static function make() {}
    const LIMIT = 10;

    public function go() {
        $this->
    }
}
`

func newTestLSP(t *testing.T) (*LSPServer, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "Foo.php")
	require.NoError(t, os.WriteFile(path, []byte(lspSource), 0o644))

	ls := NewLSPServer("test")
	result, err := ls.initialize(&glsp.Context{}, &protocol.InitializeParams{RootPath: &root})
	require.NoError(t, err)
	caps := result.(protocol.InitializeResult).Capabilities
	require.NotNil(t, caps.CompletionProvider)
	assert.Equal(t, []string{">", ":", "\\", "$"}, caps.CompletionProvider.TriggerCharacters)

	_, err = ls.codebase.Index(context.Background(), nil)
	require.NoError(t, err)
	return ls, path
}

func completeAt(t *testing.T, ls *LSPServer, path string, line, char int) []protocol.CompletionItem {
	t.Helper()
	result, err := ls.textDocumentCompletion(&glsp.Context{}, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file://" + path},
			Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)},
		},
	})
	require.NoError(t, err)
	if result == nil {
		return nil
	}
	return result.([]protocol.CompletionItem)
}

func labels(items []protocol.CompletionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

func TestLSPCompletionFromDisk(t *testing.T) {
	ls, path := newTestLSP(t)

	items := completeAt(t, ls, path, 10, len("        $this->"))
	assert.ElementsMatch(t, []string{"go", "make", "run"}, labels(items))

	for i, item := range items {
		require.NotNil(t, item.SortText)
		assert.Len(t, *item.SortText, 5)
		if i > 0 {
			assert.Less(t, *items[i-1].SortText, *item.SortText)
		}
		if item.Label != "run" {
			continue
		}
		assert.Equal(t, protocol.CompletionItemKindMethod, *item.Kind)
		assert.Equal(t, "run($a)", *item.InsertText)
		assert.Equal(t, protocol.InsertTextFormatPlainText, *item.InsertTextFormat)
		doc, ok := item.Documentation.(protocol.MarkupContent)
		require.True(t, ok)
		assert.Equal(t, "Runs it.", doc.Value)
	}
}

func TestLSPCompletionUsesOpenDocument(t *testing.T) {
	ls, path := newTestLSP(t)
	uri := "file://" + path

	require.NoError(t, ls.textDocumentDidOpen(&glsp.Context{}, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: "<?php\n$x = new Fo"},
	}))
	items := completeAt(t, ls, path, 1, len("$x = new Fo"))
	require.NotEmpty(t, items)
	assert.Equal(t, "Foo", items[0].Label)
	assert.Equal(t, protocol.CompletionItemKindClass, *items[0].Kind)

	require.NoError(t, ls.textDocumentDidChange(&glsp.Context{}, &protocol.DidChangeTextDocumentParams{
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "<?php\n\\App\\Foo::LI"}},
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
	}))
	items = completeAt(t, ls, path, 1, len("\\App\\Foo::LI"))
	require.NotEmpty(t, items)
	assert.Equal(t, "LIMIT", items[0].Label)
	assert.Equal(t, protocol.CompletionItemKindConstant, *items[0].Kind)

	require.NoError(t, ls.textDocumentDidClose(&glsp.Context{}, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	ls.mu.RLock()
	assert.Empty(t, ls.docs)
	ls.mu.RUnlock()
}

func TestLSPCompletionUnknownFile(t *testing.T) {
	ls, _ := newTestLSP(t)
	assert.Nil(t, completeAt(t, ls, "/nonexistent/X.php", 0, 0))
}

func TestLinePrefix(t *testing.T) {
	text := "<?php\r\n$a->b\n😀$c->d"
	tests := []struct {
		line, char int
		want       string
	}{
		{0, 5, "<?php"},
		{1, 4, "$a->"},
		{1, 99, "$a->b"},
		{2, 2, "😀"},
		{2, 6, "😀$c->"},
		{3, 0, ""},
		{-1, 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, linePrefix(text, tt.line, tt.char), "line %d char %d", tt.line, tt.char)
	}
}

func TestURIToPath(t *testing.T) {
	path, err := uriToPath("file:///home/me/My%20Project/a.php")
	require.NoError(t, err)
	assert.Equal(t, "/home/me/My Project/a.php", path)

	path, err = uriToPath("/plain/path.php")
	require.NoError(t, err)
	assert.Equal(t, "/plain/path.php", path)
}
