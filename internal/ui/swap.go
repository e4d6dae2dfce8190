package ui

// SwapMode is an hx-swap strategy.
type SwapMode string

const (
	SwapOuter       SwapMode = "outerHTML"
	SwapInner       SwapMode = "innerHTML"
	SwapBeforeEnd   SwapMode = "beforeend"
	SwapAfterEnd    SwapMode = "afterend"
	SwapBeforeBegin SwapMode = "beforebegin"
	SwapAfterBegin  SwapMode = "afterbegin"
	SwapDelete      SwapMode = "delete"
	SwapNone        SwapMode = "none"
)
