package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/codec"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
)

const maxBodyBytes = 1 << 20

var errHandlerTimeout = errors.New("handler did not finish before the response timeout")

// SessionStore loads a request's session and writes changed sessions back
// to the client.
type SessionStore interface {
	Load(r *http.Request) *sessions.Session
	Save(w http.ResponseWriter, s *sessions.Session) error
}

// Recorder observes dispatch outcomes. kind is "" for success.
type Recorder interface {
	Dispatched(route string, kind apperr.Kind)
}

type DispatcherOption func(*Dispatcher)

func WithSessionStore(s SessionStore) DispatcherOption {
	return func(d *Dispatcher) { d.sessions = s }
}

func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) { d.rec = r }
}

// WithTimeout bounds how long the response waits for a handler. The handler
// itself is never cancelled and keeps running to completion.
func WithTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = t }
}

// Dispatcher serves the routes of a Registry. Mount it with the mount prefix
// stripped.
type Dispatcher struct {
	reg      *Registry
	log      *zap.Logger
	sessions SessionStore
	rec      Recorder
	timeout  time.Duration
}

func NewDispatcher(reg *Registry, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{reg: reg, log: log}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	def, values, ok := d.reg.Match(r.Method, r.URL.EscapedPath())
	if !ok {
		d.record("unmatched", apperr.KindNotFound)
		writeMessage(w, http.StatusNotFound, "Page not found")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		d.fail(w, r, def, apperr.Wrap(apperr.KindValidation, err, "body: unreadable"))
		return
	}
	if len(body) > maxBodyBytes {
		d.fail(w, r, def, apperr.Validation("body", "too large"))
		return
	}

	sess := sessions.Resume("")
	if d.sessions != nil {
		sess = d.sessions.Load(r)
	}
	args, err := Bind(def, RequestContext{
		PathValues:  values,
		Query:       r.URL.Query(),
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		Session:     sess,
	})
	if err != nil {
		d.fail(w, r, def, err)
		return
	}

	// Module calls survive a client disconnect: request values are kept,
	// cancellation is not.
	out, err := d.call(context.WithoutCancel(r.Context()), def, args)
	if err != nil {
		d.fail(w, r, def, err)
		return
	}

	if s := args.Session(); s.Changed() && d.sessions != nil {
		if err := d.sessions.Save(w, s); err != nil {
			d.fail(w, r, def, err)
			return
		}
	}

	status := http.StatusOK
	if res, ok := out.(Result); ok {
		status = statusIf(res.Status, http.StatusOK)
		out = res.Body
	}
	payload, err := codec.JSON.Marshal(out)
	if err != nil {
		d.fail(w, r, def, err)
		return
	}
	d.record(def.Key(), "")
	writeJSON(w, payload, status)
}

type outcome struct {
	out any
	err error
}

// call runs the handler. With a timeout set, the response stops waiting
// after it elapses while the handler finishes in the background.
func (d *Dispatcher) call(ctx context.Context, def *RouteDefinition, args *Args) (any, error) {
	if d.timeout <= 0 {
		return run(ctx, def, args)
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := run(ctx, def, args)
		done <- outcome{out, err}
	}()
	t := time.NewTimer(d.timeout)
	defer t.Stop()
	select {
	case o := <-done:
		return o.out, o.err
	case <-t.C:
		return nil, errHandlerTimeout
	}
}

// run invokes the handler, turning a read of an undeclared parameter into an
// error. Any other panic is left to the recoverer.
func run(ctx context.Context, def *RouteDefinition, args *Args) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			u, ok := p.(UnboundParam)
			if !ok {
				panic(p)
			}
			out, err = nil, fmt.Errorf("handler %s: %w", def.Handler.Name, u)
		}
	}()
	return def.Handler.Fn(ctx, args)
}

// fail maps err to its status exactly once. Unclassified errors are logged
// and never shown to the client.
func (d *Dispatcher) fail(w http.ResponseWriter, r *http.Request, def *RouteDefinition, err error) {
	kind := apperr.KindOf(err)
	d.record(def.Key(), kind)
	status := apperr.Status(kind)

	if kind == apperr.KindInternal {
		d.log.Error("handler failed",
			zap.String("route", def.Key()),
			zap.String("handler", def.Handler.Name),
			zap.String("request_id", chimd.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeMessage(w, status, "Internal server error")
		return
	}
	writeMessage(w, status, apperr.PublicMessage(err))
}

func (d *Dispatcher) record(route string, kind apperr.Kind) {
	if d.rec != nil {
		d.rec.Dispatched(route, kind)
	}
}
