package ui

// Result[P] is returned from action handlers to control rendering and side
// effects.
//
// The runtime processes the Result after the handler returns: it applies
// headers and events, then renders the component with the returned props
// unless the result is a redirect or a skip.
//
//	return ui.OK(props)
//	return ui.OK(props).Flash(ui.FlashSuccess, "Saved")
//	return ui.OK(props).Trigger("company:updated", map[string]any{"id": id})
//	return ui.Err(props, err)
//	return ui.Redirect[Props]("/companies/" + id)
type Result[P any] struct {
	props              P
	err                error
	redirect           string
	flashes            []Flash
	trigger            string
	triggerData        map[string]any
	triggerAfterSettle string
	headers            map[string]string
	status             int
	skip               bool
}

// OK creates a success result that renders with props.
func OK[P any](props P) Result[P] {
	return Result[P]{props: props}
}

// Err creates a result that is handed to the registry's OnError handler.
// Use it for failures the component cannot render itself.
func Err[P any](props P, err error) Result[P] {
	return Result[P]{props: props, err: err}
}

// Skip indicates the handler wrote its own response.
func Skip[P any]() Result[P] {
	return Result[P]{skip: true}
}

// Redirect navigates the browser via the HX-Redirect header.
func Redirect[P any](url string) Result[P] {
	return Result[P]{redirect: url}
}

// Flash adds a toast notification. Flashes are rendered as out-of-band
// swaps appended to the #toasts container.
func (r Result[P]) Flash(level, message string) Result[P] {
	r.flashes = append(r.flashes, Flash{Level: level, Message: message})
	return r
}

// Trigger emits an event via the HX-Trigger header. Components listening
// with hx-trigger="<event> from:body" refresh themselves; data, when given,
// travels as the event detail.
func (r Result[P]) Trigger(event string, data ...map[string]any) Result[P] {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// TriggerAfterSettle emits event once the swap has settled.
func (r Result[P]) TriggerAfterSettle(event string) Result[P] {
	r.triggerAfterSettle = event
	return r
}

// PushURL updates the browser URL via HX-Push-Url.
func (r Result[P]) PushURL(url string) Result[P] {
	return r.Header("HX-Push-Url", url)
}

// Header sets a response header.
func (r Result[P]) Header(key, value string) Result[P] {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// Status sets the HTTP status code. Zero means 200.
func (r Result[P]) Status(code int) Result[P] {
	r.status = code
	return r
}

func (r Result[P]) GetProps() P { return r.props }
func (r Result[P]) GetErr() error { return r.err }
func (r Result[P]) GetRedirect() string { return r.redirect }
func (r Result[P]) GetFlashes() []Flash { return r.flashes }
func (r Result[P]) GetTrigger() string { return r.trigger }
func (r Result[P]) GetTriggerData() map[string]any { return r.triggerData }
func (r Result[P]) GetTriggerAfterSettle() string { return r.triggerAfterSettle }
func (r Result[P]) GetHeaders() map[string]string { return r.headers }
func (r Result[P]) GetStatus() int { return r.status }
func (r Result[P]) ShouldSkip() bool { return r.skip }
