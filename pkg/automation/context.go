// Package automation provides the execution context the game host passes to
// the VM every tick, and the natives that drive the host through it.
//
// Natives never touch the host directly. They queue requests on the Context;
// the host drains the queues once per frame and reports back with
// CompleteClick and CompleteScreenshot. A native that waits on the host
// completes on the first advance after the host has reported.
package automation

import (
	"log/slog"
)

// ElementLookup answers whether a UI element with the given name exists.
type ElementLookup interface {
	Has(name string) bool
}

// ClickRequest is a click the host should deliver to the UI.
type ClickRequest struct {
	ID     int
	ByName bool
	Name   string // element name when ByName
	X, Y   int    // screen position when !ByName
}

// ScreenshotRequest asks the host to capture the next drawn frame.
type ScreenshotRequest struct {
	ID     int
	Suffix string
	Frame  int // frame the request was queued on
}

// ClickResult is what the host reports for a delivered click.
type ClickResult struct {
	Hit     bool   // an element received the click
	Element string // name of the element that received it
}

// Context is shared between the VM's natives and the host for one run.
// It is used from the host's frame goroutine only.
type Context struct {
	UI ElementLookup

	log    *slog.Logger
	frame  int
	nextID int

	clicks      []ClickRequest
	screenshots []ScreenshotRequest
	clickDone   map[int]ClickResult
	shotDone    map[int]string

	quitGame  bool
	quitApp   bool
	lastDebug string
}

// NewContext creates a Context. ui may be nil when no UI is attached.
func NewContext(ui ElementLookup, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		UI:        ui,
		log:       logger,
		clickDone: make(map[int]ClickResult),
		shotDone:  make(map[int]string),
	}
}

// BeginFrame advances the frame counter. The host calls it once per Update,
// before ticking the VM.
func (c *Context) BeginFrame() {
	c.frame++
}

// Frame returns the current frame number, starting at 1 after the first BeginFrame.
func (c *Context) Frame() int {
	return c.frame
}

func (c *Context) newID() int {
	c.nextID++
	return c.nextID
}

// RequestClickByName queues a click on the named element and returns its id.
func (c *Context) RequestClickByName(name string) int {
	id := c.newID()
	c.clicks = append(c.clicks, ClickRequest{ID: id, ByName: true, Name: name})
	return id
}

// RequestClickAt queues a click at a screen position and returns its id.
func (c *Context) RequestClickAt(x, y int) int {
	id := c.newID()
	c.clicks = append(c.clicks, ClickRequest{ID: id, X: x, Y: y})
	return id
}

// TakeClicks returns and clears the queued click requests.
func (c *Context) TakeClicks() []ClickRequest {
	reqs := c.clicks
	c.clicks = nil
	return reqs
}

// CompleteClick records that the host processed click id. A miss is logged
// and still completes the request.
func (c *Context) CompleteClick(id int, result ClickResult) {
	if !result.Hit {
		c.log.Warn("click request dropped: no element", "id", id, "frame", c.frame)
	}
	c.clickDone[id] = result
}

// ClickDelivered reports whether the host has processed click id.
func (c *Context) ClickDelivered(id int) (ClickResult, bool) {
	r, ok := c.clickDone[id]
	if ok {
		delete(c.clickDone, id)
	}
	return r, ok
}

// RequestScreenshot queues a capture request and returns its id.
func (c *Context) RequestScreenshot(suffix string) int {
	id := c.newID()
	c.screenshots = append(c.screenshots, ScreenshotRequest{ID: id, Suffix: suffix, Frame: c.frame})
	return id
}

// TakeScreenshots returns and clears the queued capture requests.
func (c *Context) TakeScreenshots() []ScreenshotRequest {
	reqs := c.screenshots
	c.screenshots = nil
	return reqs
}

// CompleteScreenshot records that capture id was handled. path is empty
// when nothing was written.
func (c *Context) CompleteScreenshot(id int, path string) {
	c.shotDone[id] = path
}

// ScreenshotCaptured reports whether capture id was handled.
func (c *Context) ScreenshotCaptured(id int) (string, bool) {
	p, ok := c.shotDone[id]
	if ok {
		delete(c.shotDone, id)
	}
	return p, ok
}

// HasElement reports whether the attached UI has an element called name.
func (c *Context) HasElement(name string) bool {
	return c.UI != nil && c.UI.Has(name)
}

// QuitGame reports whether quit_game ran.
func (c *Context) QuitGame() bool { return c.quitGame }

// QuitApp reports whether quit_app ran.
func (c *Context) QuitApp() bool { return c.quitApp }

// LastDebug returns the last message passed to debug.
func (c *Context) LastDebug() string { return c.lastDebug }

// Pending reports the number of queued click and screenshot requests.
func (c *Context) Pending() int {
	return len(c.clicks) + len(c.screenshots)
}

// Reset drops queued requests, unclaimed completions and quit flags so the
// host can restart the script on the same Context. Ids keep counting up, so
// a request from before the reset never matches one made after it.
func (c *Context) Reset() {
	c.clicks = nil
	c.screenshots = nil
	clear(c.clickDone)
	clear(c.shotDone)
	c.quitGame = false
	c.quitApp = false
	c.lastDebug = ""
}
