// Package lsp serves autoscript diagnostics, symbols and completion over
// the Language Server Protocol.
package lsp

import (
	"sort"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/zurustar/autoscript/pkg/compiler"
)

// Name is the server name reported to clients.
const Name = "autoscript-lsp"

// Version is reported in the initialize response.
var Version = "0.1.0"

// Server holds the open documents and the protocol handler.
type Server struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentUri]string

	natives     []string
	nativeSet   map[string]bool
	compileOpts []compiler.Option

	handler protocol.Handler
	server  *glspserver.Server
	log     commonlog.Logger
}

// New creates a server that knows the given native names.
func New(natives []string, opts ...compiler.Option) *Server {
	s := &Server{
		docs:        make(map[protocol.DocumentUri]string),
		natives:     append([]string(nil), natives...),
		nativeSet:   make(map[string]bool, len(natives)),
		compileOpts: opts,
		log:         commonlog.GetLogger("autoscript.lsp"),
	}
	sort.Strings(s.natives)
	for _, n := range natives {
		s.nativeSet[n] = true
	}

	s.handler = protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		Shutdown:                   s.shutdown,
		SetTrace:                   s.setTrace,
		TextDocumentDidOpen:        s.didOpen,
		TextDocumentDidChange:      s.didChange,
		TextDocumentDidClose:       s.didClose,
		TextDocumentDocumentSymbol: s.documentSymbol,
		TextDocumentCompletion:     s.completion,
	}
	s.server = glspserver.NewServer(&s.handler, Name, false)
	return s
}

// Run serves over stdin/stdout until the client exits.
func (s *Server) Run() error {
	s.log.Info("starting", "natives", len(s.natives))
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	full := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &full,
	}
	capabilities.DocumentSymbolProvider = true
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"_"},
	}

	if params.ClientInfo != nil {
		s.log.Info("client connected", "client", params.ClientInfo.Name)
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &Version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.setDocument(uri, params.TextDocument.Text)
	s.log.Debug("opened", "uri", uri)
	s.publish(ctx, uri, params.TextDocument.Text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		s.log.Warning("change for unopened document", "uri", uri)
	}
	for _, change := range params.ContentChanges {
		// フル同期のみ
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			text = whole.Text
		}
	}
	s.setDocument(uri, text)
	s.publish(ctx, uri, text)
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) documentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return []protocol.DocumentSymbol{}, nil
	}
	return Symbols(text), nil
}

func (s *Server) completion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return []protocol.CompletionItem{}, nil
	}
	return Complete(text, params.Position, s.natives), nil
}

func (s *Server) publish(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diags := Analyze(text, s.nativeSet, s.compileOpts...)
	s.log.Debug("diagnostics", "uri", uri, "count", len(diags))
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func (s *Server) setDocument(uri protocol.DocumentUri, text string) {
	s.mu.Lock()
	s.docs[uri] = text
	s.mu.Unlock()
}

func (s *Server) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[uri]
	return text, ok
}
