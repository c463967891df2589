// Package wsconsole is a minimal remote-sender collaborator the dispatch
// core intentionally does not own: a websocket JSON-RPC 2.0 endpoint where
// each request's "line" param is run through manager.Execute / Suggest /
// HelpQuery, and the resulting manager.CommandResult, error, or help
// payload comes back as the response. It demonstrates the integration
// boundary without trying to be a full platform adapter.
package wsconsole

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	wsjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"

	"github.com/dispatchtree/cloud/caption"
	"github.com/dispatchtree/cloud/help"
	"github.com/dispatchtree/cloud/log"
	"github.com/dispatchtree/cloud/manager"
	"github.com/dispatchtree/cloud/tree"
)

// Sender is the sender type this transport hands to the manager: a remote
// console session identified by name, carrying whatever permissions the
// caller granted it. It satisfies tree.PermissionChecker.
type Sender struct {
	Name        string
	Permissions map[string]bool
}

// HasPermission implements tree.PermissionChecker.
func (s *Sender) HasPermission(permission string) bool {
	return s.Permissions != nil && s.Permissions[permission]
}

var _ tree.PermissionChecker = (*Sender)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server upgrades incoming HTTP connections to a websocket JSON-RPC 2.0
// session, one jsonrpc2.Conn per connection, and dispatches each
// "execute"/"suggest"/"help" request against Manager.
type Server struct {
	Manager  *manager.Manager
	Captions *caption.Registry
	logger   log.Logger
}

// NewServer returns a Server driving m, with a fresh default caption
// registry (callers can replace Captions before serving to localize or
// override message templates).
func NewServer(m *manager.Manager) *Server {
	return &Server{
		Manager:  m,
		Captions: caption.NewRegistry(),
		logger:   log.Get(log.Transport),
	}
}

// ServeHTTP implements http.Handler, upgrading the connection and blocking
// until the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("websocket upgrade: %v", err)
		return
	}
	stream := wsjsonrpc2.NewObjectStream(conn)
	rpc := jsonrpc2.NewConn(r.Context(), stream, jsonrpc2.HandlerWithError(s.handle))
	<-rpc.DisconnectNotify()
}

// requestParams is the shared param shape for "execute" and "suggest":
// the identity of the remote sender and the raw input line.
type requestParams struct {
	Sender      string          `json:"sender"`
	Permissions map[string]bool `json:"permissions"`
	Line        string          `json:"line"`
}

// executeResponse is what "execute" replies with: either the bound
// argument values on success, or a caption key plus formatted message on
// failure, never both.
type executeResponse struct {
	Bindings   map[string]string `json:"bindings,omitempty"`
	CaptionKey string            `json:"captionKey,omitempty"`
	Message    string            `json:"message,omitempty"`
}

func (s *Server) handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	var p requestParams
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &p); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
	}
	sender := &Sender{Name: p.Sender, Permissions: p.Permissions}

	switch req.Method {
	case "execute":
		return s.handleExecute(ctx, sender, p.Line)
	case "suggest":
		return s.handleSuggest(ctx, sender, p.Line), nil
	case "help":
		return helpPayload(s.Manager.HelpQuery(sender, p.Line)), nil
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "unknown method: " + req.Method}
	}
}

func (s *Server) handleExecute(ctx context.Context, sender *Sender, line string) (executeResponse, error) {
	result, err := s.Manager.Execute(ctx, sender, line).Wait()
	if err != nil {
		key, vars := caption.FromError(err)
		return executeResponse{
			CaptionKey: string(key),
			Message:    s.Captions.Format(key, vars),
		}, nil
	}
	return executeResponse{Bindings: bindingsOf(result)}, nil
}

func (s *Server) handleSuggest(ctx context.Context, sender *Sender, line string) []string {
	suggestions := s.Manager.Suggest(ctx, sender, line)
	out := make([]string, len(suggestions))
	for i, sg := range suggestions {
		out[i] = sg.Value
	}
	return out
}

func bindingsOf(result *manager.CommandResult) map[string]string {
	if result == nil || result.Context == nil {
		return nil
	}
	out := make(map[string]string)
	for _, k := range result.Context.Keys() {
		v, _ := result.Context.RawGet(k)
		out[k.Name] = fmt.Sprintf("%v", v)
	}
	return out
}

// helpResponse mirrors help.Result, shaped for JSON transport rather than
// Go-side pattern matching on which field is non-nil.
type helpResponse struct {
	Kind     string   `json:"kind"`
	Syntax   string   `json:"syntax,omitempty"`
	Children []string `json:"children,omitempty"`
}

func helpPayload(res help.Result) helpResponse {
	switch {
	case res.Verbose != nil:
		return helpResponse{Kind: "verbose", Syntax: res.Verbose.Entry.Syntax()}
	case res.Multiple != nil:
		children := make([]string, len(res.Multiple.Children))
		for i, c := range res.Multiple.Children {
			children[i] = c.Syntax()
		}
		return helpResponse{Kind: "multiple", Syntax: res.Multiple.LongestCommonPath, Children: children}
	default:
		entries := make([]string, len(res.Index.Entries))
		for i, e := range res.Index.Entries {
			entries[i] = e.Syntax()
		}
		return helpResponse{Kind: "index", Children: entries}
	}
}
