package formmodel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/pkg/render"
	"github.com/dmitrymomot/formtree/pkg/validator"
)

// Phase is the position of a form in its processing cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReading
	PhaseDispatching
	PhaseValidating
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReading:
		return "reading"
	case PhaseDispatching:
		return "dispatching"
	case PhaseValidating:
		return "validating"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// Form is the root widget. It owns the event queue and drives the
// processing cycle. A form is not safe for concurrent use; Process
// serializes callers.
type Form struct {
	widgetBase
	def            *FormDefinition
	cfg            Config
	children       widgetList
	submitWidget   Widget
	endProcessing  *bool
	locale         language.Tag
	eventListeners listenerList[WidgetEvent]
	phaseListeners listenerList[*PhaseEvent]
	queue          []WidgetEvent
	instanceID     string
	mu             sync.Mutex
	phase          Phase
	loading        int
	buffering      bool
	draining       bool
	valid          bool
}

func (f *Form) Kind() string { return "form" }

// FormDefinition returns the definition the form was created from.
func (f *Form) FormDefinition() *FormDefinition { return f.def }

// InstanceID identifies this form instance, e.g. across the steps of a wizard.
func (f *Form) InstanceID() string { return f.instanceID }

// Config returns the processing configuration.
func (f *Form) Config() Config { return f.cfg }

// Logger returns the processing logger.
func (f *Form) Logger() *slog.Logger { return f.cfg.Logger }

// Locale returns the locale of the current cycle.
func (f *Form) Locale() language.Tag { return f.locale }

// Phase returns the current processing phase.
func (f *Form) Phase() Phase { return f.phase }

// SubmitWidget returns the widget that submitted the form in this cycle.
func (f *Form) SubmitWidget() Widget { return f.submitWidget }

// IsValid reports the outcome of the last validation.
func (f *Form) IsValid() bool { return f.valid }

func (f *Form) Child(id string) Widget { return f.children.get(id) }

func (f *Form) HasChild(id string) bool { return f.children.has(id) }

func (f *Form) Children() []Widget { return f.children.all() }

func (f *Form) lookupChild(id string) Widget { return f.children.get(id) }

func (f *Form) initialize() error {
	if err := f.widgetBase.initialize(); err != nil {
		return err
	}
	return f.children.initialize()
}

// LookupFullyQualified finds a widget by its fully-qualified id. The form's
// own id is stripped when it leads the path.
func (f *Form) LookupFullyQualified(id string) Widget {
	if own := f.ID(); own != "" {
		if id == own {
			return f
		}
		id = strings.TrimPrefix(id, own+".")
	}
	return f.Lookup(strings.ReplaceAll(id, ".", "/"))
}

// Process runs one request cycle: read every widget from req, dispatch the
// events raised while reading, then validate unless a handler ended
// processing. It reports whether the form is finished; false means the
// form should be displayed again.
//
// Errors are fatal: a broken definition or a malformed request. Validation
// failures are attached to widgets instead.
func (f *Form) Process(ctx context.Context, req Request) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	finished, err := f.process(req)
	if err != nil {
		f.queue = nil
		f.buffering = false
		f.phase = PhaseIdle
		f.cfg.Logger.DebugContext(ctx, "form processing failed", "form", f.ID(), "instance", f.instanceID, "error", err)
		return false, err
	}
	f.phase = PhaseDone
	f.cfg.Logger.DebugContext(ctx, "form processed",
		"form", f.ID(),
		"instance", f.instanceID,
		"finished", finished,
		"valid", f.valid)
	return finished, nil
}

func (f *Form) process(req Request) (bool, error) {
	// Events left over from programmatic binding go first.
	if err := f.drain(); err != nil {
		return false, err
	}

	f.submitWidget = nil
	f.endProcessing = nil
	f.valid = false
	f.locale = req.Locale()
	if f.locale == language.Und {
		f.locale = f.cfg.Locale
	}

	f.phase = PhaseReading
	f.buffering = true
	if err := f.children.readFromRequest(req); err != nil {
		return false, err
	}
	if f.submitWidget == nil {
		if err := f.resolveSubmitWidget(req); err != nil {
			return false, err
		}
	}

	f.phase = PhaseDispatching
	if err := f.drain(); err != nil {
		return false, err
	}
	f.buffering = false

	f.phaseListeners.fire(&PhaseEvent{Form: f, Phase: ProcessingPhaseRead})
	if f.endProcessing != nil {
		return !*f.endProcessing, nil
	}

	f.phase = PhaseValidating
	f.valid = f.Validate()
	f.phaseListeners.fire(&PhaseEvent{Form: f, Phase: ProcessingPhaseValidate})
	if f.endProcessing != nil {
		return !*f.endProcessing, nil
	}
	return f.valid, nil
}

func (f *Form) resolveSubmitWidget(req Request) error {
	id, ok := req.Parameter(f.cfg.SubmitIDParameter)
	if !ok || id == "" {
		return nil
	}
	w := f.LookupFullyQualified(id)
	if w == nil {
		return fmt.Errorf("%w: %q", ErrUnknownSubmitWidget, id)
	}
	return f.SetSubmitWidget(w)
}

// isSubmitter reports whether w submitted the current request, either by
// claiming it while reading or through the submit id parameter.
func (f *Form) isSubmitter(req Request, w Widget) bool {
	if w == nil {
		return false
	}
	if f.submitWidget != nil {
		return f.submitWidget == w
	}
	id, ok := req.Parameter(f.cfg.SubmitIDParameter)
	return ok && id != "" && f.LookupFullyQualified(id) == w
}

// SetSubmitWidget records w as the widget that submitted the form. Setting
// the same widget again is a no-op; a different widget is an error. Actions
// decide how processing continues; any other widget ends processing and
// redisplays the form.
func (f *Form) SetSubmitWidget(w Widget) error {
	if f.submitWidget == w {
		return nil
	}
	if f.submitWidget != nil {
		return fmt.Errorf("%w: %q, cannot set %q", ErrSubmitWidgetConflict, f.submitWidget.FullyQualifiedID(), w.FullyQualifiedID())
	}
	if !w.CombinedState().AcceptsInput() {
		return fmt.Errorf("%w: %q is %s", ErrWidgetNotAcceptingInput, w.FullyQualifiedID(), w.CombinedState())
	}
	f.submitWidget = w
	if a, ok := w.(activator); ok {
		return a.activate()
	}
	f.EndProcessing(true)
	return nil
}

// EndProcessing stops the current cycle before (further) validation.
// redisplay false marks the form finished.
func (f *Form) EndProcessing(redisplay bool) {
	f.endProcessing = &redisplay
}

// AddWidgetEvent queues ev. Outside the read and dispatch phases, and
// outside BeginLoad/EndLoad, the queue is drained immediately; events raised
// while draining are appended and delivered by the same loop.
func (f *Form) AddWidgetEvent(ev WidgetEvent) error {
	f.queue = append(f.queue, ev)
	if f.buffering || f.loading > 0 {
		return nil
	}
	return f.drain()
}

func (f *Form) drain() error {
	if f.draining {
		return nil
	}
	f.draining = true
	defer func() { f.draining = false }()

	for len(f.queue) > 0 {
		ev := f.queue[0]
		f.queue[0] = nil
		f.queue = f.queue[1:]
		if err := f.dispatch(ev); err != nil {
			return err
		}
	}
	f.queue = nil
	return nil
}

func (f *Form) dispatch(ev WidgetEvent) error {
	if err := ev.Source().broadcastEvent(ev); err != nil {
		return err
	}
	f.eventListeners.fire(ev)
	return nil
}

// BeginLoad buffers events raised while values are set programmatically.
func (f *Form) BeginLoad() { f.loading++ }

// EndLoad delivers the events buffered since the matching BeginLoad.
func (f *Form) EndLoad() error {
	if f.loading > 0 {
		f.loading--
	}
	if f.loading > 0 || f.buffering {
		return nil
	}
	return f.drain()
}

// OnEvent registers fn for every event delivered by the form, after the
// source widget's own listeners.
func (f *Form) OnEvent(fn func(WidgetEvent)) *Handle {
	return f.eventListeners.add(fn)
}

func (f *Form) RemoveEventListener(h *Handle) bool {
	return f.eventListeners.remove(h)
}

// OnProcessingPhase registers fn to run at the end of the read and validate
// phases. Listeners may call EndProcessing.
func (f *Form) OnProcessingPhase(fn func(*PhaseEvent)) *Handle {
	return f.phaseListeners.add(fn)
}

func (f *Form) RemoveProcessingPhaseListener(h *Handle) bool {
	return f.phaseListeners.remove(h)
}

func (f *Form) ReadFromRequest(req Request) error {
	return f.children.readFromRequest(req)
}

func (f *Form) Validate() bool {
	f.validationError = nil
	valid := f.children.validate()
	return runValidators(f) && valid
}

// ValidationErrors collects the validation errors of the form and all
// widgets taking part in the cycle, keyed by fully-qualified id and
// translated with the configured translator.
func (f *Form) ValidationErrors() validator.ValidationErrors {
	var errs validator.ValidationErrors
	tr := f.translator()
	var walk func(w Widget)
	walk = func(w Widget) {
		if ve := w.ValidationError(); ve != nil {
			e := ve.Translated(tr)
			e.Field = w.FullyQualifiedID()
			errs = append(errs, e)
		}
		switch c := w.(type) {
		case *Union:
			if id := c.ActiveCaseID(); id != "" && c.cases.has(id) {
				walk(c.cases.get(id))
			}
		case containerWidget:
			for _, child := range c.Children() {
				walk(child)
			}
		}
	}
	walk(f)
	return errs
}

// translator returns the message translator for the current locale.
func (f *Form) translator() validator.TranslateFunc {
	if f.cfg.Localizer != nil {
		return f.cfg.Localizer(f.locale)
	}
	return f.cfg.Translator
}

// Values returns the values of every value-bearing widget keyed by
// fully-qualified id. Inactive union cases are left out.
func (f *Form) Values() map[string]any {
	out := make(map[string]any)
	var walk func(w Widget)
	walk = func(w Widget) {
		switch c := w.(type) {
		case *Action:
			return
		case *Union:
			if active := c.ActiveCase(); active != nil {
				walk(active)
			}
		case containerWidget:
			for _, child := range c.Children() {
				walk(child)
			}
		default:
			out[w.FullyQualifiedID()] = w.Value()
		}
	}
	walk(f)
	return out
}

// Release frees request-scoped resources such as uploaded parts. It waits
// for a Process call in progress to return.
func (f *Form) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	releaseResources(f)
}

func (f *Form) renderAttrs() []render.Attr {
	return []render.Attr{{Name: "instance", Value: f.instanceID}}
}

func (f *Form) generateContent(ctx context.Context, sink render.Sink) error {
	return f.children.generate(ctx, sink)
}
