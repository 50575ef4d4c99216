package main

import (
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const loginEndpoint = "/api/login"

// LoginInfo is the capture buffer for the three authentication
// artifacts the purchase lookup needs. Valid only when all three are
// present; scoped to a single session.
type LoginInfo struct {
	RapAPI string
	Token  string
	DSID   string
}

// Complete reports whether every field has been captured.
func (l LoginInfo) Complete() bool {
	return l.RapAPI != "" && l.Token != "" && l.DSID != ""
}

// Missing names the fields that were never captured, for diagnostics.
func (l LoginInfo) Missing() []string {
	var missing []string
	if l.RapAPI == "" {
		missing = append(missing, "rap2_api")
	}
	if l.Token == "" {
		missing = append(missing, "token")
	}
	if l.DSID == "" {
		missing = append(missing, "dsid")
	}
	return missing
}

// LoginCapture observes a session's traffic on the login endpoint: the
// outbound request carries the rap2-api header, the inbound response
// body carries token and dsid. It is a pure observer; it never touches
// control flow and malformed traffic is ignored.
type LoginCapture struct {
	mu       sync.Mutex
	info     LoginInfo
	done     chan struct{}
	signaled bool
}

func NewLoginCapture() *LoginCapture {
	return &LoginCapture{done: make(chan struct{})}
}

// Attach installs the traffic observers on the page. Must be called
// before navigation so the login exchange cannot be missed. The
// observers live until the page closes.
func (c *LoginCapture) Attach(page *rod.Page) {
	go page.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			c.observeRequest(e)
		},
		func(e *proto.NetworkResponseReceived) {
			c.observeResponse(page, e)
		},
	)()
}

// Captured closes exactly once, the first time all three fields are
// simultaneously non-empty.
func (c *LoginCapture) Captured() <-chan struct{} {
	return c.done
}

// Info returns a copy of the capture buffer.
func (c *LoginCapture) Info() LoginInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

func (c *LoginCapture) observeRequest(e *proto.NetworkRequestWillBeSent) {
	if !strings.Contains(e.Request.URL, loginEndpoint) || e.Request.Method != "GET" {
		return
	}

	// CDP reports header names as sent, so match case-insensitively.
	for name, value := range e.Request.Headers {
		if strings.EqualFold(name, "x-apple-rap2-api") {
			c.update(func(info *LoginInfo) {
				info.RapAPI = value.Str()
			})
			return
		}
	}
}

func (c *LoginCapture) observeResponse(page *rod.Page, e *proto.NetworkResponseReceived) {
	if !strings.Contains(e.Response.URL, loginEndpoint) || e.Response.Status != 200 {
		return
	}

	body, ok := fetchResponseBody(page, e.RequestID)
	if !ok {
		return
	}

	data := gson.NewFrom(body)
	token := data.Get("token")
	dsid := data.Get("dsid")

	c.update(func(info *LoginInfo) {
		if !token.Nil() && token.Str() != "" {
			info.Token = token.Str()
		}
		if !dsid.Nil() && dsid.Str() != "" {
			info.DSID = dsid.Str()
		}
	})
}

// fetchResponseBody reads the response body through the devtools
// protocol. The body may not be buffered yet when the response event
// fires, so a couple of short retries are allowed before giving up.
func fetchResponseBody(page *rod.Page, requestID proto.NetworkRequestID) (string, bool) {
	for attempt := 0; attempt < 3; attempt++ {
		result, err := proto.NetworkGetResponseBody{RequestID: requestID}.Call(page)
		if err == nil {
			if !result.Base64Encoded {
				return result.Body, true
			}
			decoded, err := base64.StdEncoding.DecodeString(result.Body)
			if err != nil {
				return "", false
			}
			return string(decoded), true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return "", false
}

func (c *LoginCapture) update(apply func(*LoginInfo)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	apply(&c.info)

	if c.info.Complete() && !c.signaled {
		c.signaled = true
		close(c.done)
	}
}
