package navigation

import (
	"context"
	"fmt"
	"sync"

	"codementor/internal/logging/types"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const bindingName = "__codementorRoute"

// routeHookJS wraps the history entry points, listens for popstate and
// observes body mutations. Mutation reports are throttled in the page.
const routeHookJS = `() => {
	if (window.__codementorRouteHook) return;
	window.__codementorRouteHook = true;

	const notify = (kind) => {
		if (typeof window.` + bindingName + ` === 'function') {
			window.` + bindingName + `({kind, url: location.href});
		}
	};

	for (const name of ['pushState', 'replaceState']) {
		const original = history[name];
		history[name] = function (...args) {
			const result = original.apply(this, args);
			notify(name);
			return result;
		};
	}
	window.addEventListener('popstate', () => notify('popState'));

	let pending = false;
	const observe = () => new MutationObserver(() => {
		if (pending) return;
		pending = true;
		setTimeout(() => { pending = false; notify('mutation'); }, 250);
	}).observe(document.body, {childList: true, subtree: true});

	if (document.body) observe();
	else document.addEventListener('DOMContentLoaded', observe);
}`

const injectPanelJS = `(id, src) => {
	if (document.getElementById(id)) return;
	const frame = document.createElement('iframe');
	frame.id = id;
	frame.src = src;
	frame.style.cssText = 'position:fixed;top:0;right:0;width:400px;height:100vh;border:none;z-index:999999;background:white;';
	document.body.appendChild(frame);
}`

// RodRouteSource reports route changes of a live browser page
type RodRouteSource struct {
	page   *rod.Page
	logger types.Logger
}

// NewRodRouteSource watches page
func NewRodRouteSource(page *rod.Page, logger types.Logger) *RodRouteSource {
	return &RodRouteSource{page: page, logger: logger.WithField("component", "rod_route_source")}
}

// Events installs the route hooks and streams events until ctx is done. The
// first event is the page's current URL.
func (s *RodRouteSource) Events(ctx context.Context) (<-chan RouteEvent, error) {
	out := newEventStream(64, s.logger)

	stop, err := s.page.Expose(bindingName, func(req gson.JSON) (interface{}, error) {
		out.emit(RouteEvent{Kind: EventKind(req.Get("kind").Str()), URL: req.Get("url").Str()})
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expose route binding: %w", err)
	}

	remove, err := s.page.EvalOnNewDocument("(" + routeHookJS + ")()")
	if err != nil {
		_ = stop()
		return nil, fmt.Errorf("failed to register route hook: %w", err)
	}
	if _, err := s.page.Eval(routeHookJS); err != nil {
		_ = stop()
		_ = remove()
		return nil, fmt.Errorf("failed to install route hook: %w", err)
	}

	info, err := s.page.Info()
	if err != nil {
		_ = stop()
		_ = remove()
		return nil, fmt.Errorf("failed to read page info: %w", err)
	}
	out.emit(RouteEvent{Kind: EventLoad, URL: info.URL})

	go func() {
		defer out.close()

		s.page.Context(ctx).EachEvent(
			func(e *proto.PageFrameNavigated) {
				if e.Frame != nil && e.Frame.ParentID == "" {
					out.emit(RouteEvent{Kind: EventLoad, URL: e.Frame.URL})
				}
			},
			func(e *proto.PageNavigatedWithinDocument) {
				if e.FrameID == s.page.FrameID {
					out.emit(RouteEvent{Kind: EventPushState, URL: e.URL})
				}
			},
		)()

		if err := remove(); err != nil {
			s.logger.Debug("Route hook removal failed", map[string]interface{}{"error": err.Error()})
		}
		if err := stop(); err != nil {
			s.logger.Debug("Route binding removal failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	return out.ch, nil
}

// eventStream is a buffered channel that tolerates emits after close
type eventStream struct {
	mu     sync.Mutex
	ch     chan RouteEvent
	closed bool
	logger types.Logger
}

func newEventStream(size int, logger types.Logger) *eventStream {
	return &eventStream{ch: make(chan RouteEvent, size), logger: logger}
}

func (s *eventStream) emit(ev RouteEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.logger.Warn("Route event dropped, consumer is behind", map[string]interface{}{
			"kind": string(ev.Kind),
			"url":  ev.URL,
		})
	}
}

func (s *eventStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// RodPanel is the mentor iframe inside a live browser page
type RodPanel struct {
	page *rod.Page
	id   string
	src  string
}

// NewRodPanel manages the iframe with element id, loading src
func NewRodPanel(page *rod.Page, id, src string) *RodPanel {
	if src == "" {
		src = "about:blank"
	}
	return &RodPanel{page: page, id: id, src: src}
}

// Exists reports whether the panel element is in the document
func (p *RodPanel) Exists(ctx context.Context) (bool, error) {
	has, _, err := p.page.Context(ctx).Has("#" + p.id)
	return has, err
}

// Inject appends the panel iframe unless it is already present
func (p *RodPanel) Inject(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval(injectPanelJS, p.id, p.src)
	return err
}
