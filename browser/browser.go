// Package browser abstracts the ambient user-agent facilities the auth
// client depends on: the cookie jar, popup windows, and cross-window
// messaging. Keeping these behind small interfaces lets the core run and
// test without a real browser host.
package browser

// CookieJar exposes the ambient cookies as a raw Cookie header string.
type CookieJar interface {
	CookieHeader() string
}

// Window is a handle to an opened popup.
type Window interface {
	// Closed reports whether the window has been closed, by us or the user.
	Closed() bool
	// Close closes the window. Closing an already closed window is a no-op.
	Close()
}

// PopupOpener opens a URL in a new window of the requested size. A blocked
// popup is reported as an error; the caller must turn it into a result
// value rather than propagate it.
type PopupOpener interface {
	Open(url string, width, height int) (Window, error)
}

// Message is one cross-window message with the sender's origin attached.
type Message struct {
	Origin string
	Data   []byte
}

// MessageChannel delivers messages posted back by a popup. Subscribe
// returns a receive channel and an unsubscribe func; after unsubscribe the
// channel is closed and no further messages arrive.
type MessageChannel interface {
	Subscribe() (<-chan Message, func())
}

// HeaderJar is a CookieJar over a raw header string, settable by the
// embedding application or by tests.
type HeaderJar struct {
	Header string
}

func (j *HeaderJar) CookieHeader() string { return j.Header }
