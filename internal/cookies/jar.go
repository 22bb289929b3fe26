// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cookies provides an http.CookieJar that survives process restarts.
// The Jifa server may hand the token out as a cookie (for example after an
// OAuth2 login); the jar is the CLI's equivalent of the browser cookie store
// and the second location the token is read from.
package cookies

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// FileName is the jar's file name inside the state directory.
const FileName = "cookies.json"

// Jar is a cookie jar for a single server whose cookies are persisted to a
// JSON file after every change.
type Jar struct {
	mu     sync.Mutex
	jar    *cookiejar.Jar
	server *url.URL
	path   string
	// entries mirrors what the server set, keyed by cookie name, because
	// cookiejar.Jar does not expose path or expiry.
	entries map[string]entry
}

type entry struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

func (e entry) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     e.Name,
		Value:    e.Value,
		Path:     e.Path,
		Domain:   e.Domain,
		Expires:  e.Expires,
		Secure:   e.Secure,
		HttpOnly: e.HTTPOnly,
	}
}

func (e entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !e.Expires.After(now)
}

// Open loads the jar for serverURL from dir, creating an empty one when the
// file does not exist yet. Cookies recorded for another server are dropped.
func Open(dir, serverURL string) (*Jar, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", serverURL)
	}
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	j := &Jar{
		jar:     inner,
		server:  &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"},
		path:    filepath.Join(dir, FileName),
		entries: map[string]entry{},
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

type file struct {
	Server  string  `json:"server"`
	Cookies []entry `json:"cookies"`
}

func (j *Jar) load() error {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse %s: %w", j.path, err)
	}
	if f.Server != j.server.String() {
		return nil
	}
	now := time.Now()
	var replay []*http.Cookie
	for _, e := range f.Cookies {
		if e.expired(now) {
			continue
		}
		j.entries[e.Name] = e
		replay = append(replay, e.cookie())
	}
	j.jar.SetCookies(j.server, replay)
	return nil
}

// save writes the jar; callers hold j.mu.
func (j *Jar) save() error {
	f := file{Server: j.server.String()}
	for _, e := range j.entries {
		f.Cookies = append(f.Cookies, e)
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, b, 0o600)
}

// SetCookies implements http.CookieJar. Cookies for the configured server
// are persisted; a write failure is not reported because the interface has
// no error return, the in-memory jar stays authoritative for this process.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	if u.Host != j.server.Host {
		return
	}
	now := time.Now()
	for _, c := range cookies {
		e := entry{
			Name:     c.Name,
			Value:    c.Value,
			Path:     cookiePath(c.Path, u.Path),
			Domain:   c.Domain,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge < 0:
			delete(j.entries, c.Name)
			continue
		case c.MaxAge > 0:
			e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		default:
			e.Expires = c.Expires
		}
		if e.expired(now) || e.Value == "" {
			delete(j.entries, c.Name)
			continue
		}
		j.entries[c.Name] = e
	}
	_ = j.save()
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Value returns the value of the named cookie as it would be sent to the
// server root, or "" if there is none.
func (j *Jar) Value(name string) string {
	for _, c := range j.Cookies(j.server) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Set stores a cookie for the server root and persists it.
func (j *Jar) Set(name, value string) {
	j.SetCookies(j.server, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// Remove expires the named cookie and persists the jar.
func (j *Jar) Remove(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	path, domain := "/", ""
	if e, ok := j.entries[name]; ok {
		if e.Path != "" {
			path = e.Path
		}
		domain = e.Domain
	}
	j.jar.SetCookies(j.server, []*http.Cookie{{Name: name, Path: path, Domain: domain, MaxAge: -1}})
	delete(j.entries, name)
	return j.save()
}

// cookiePath applies the RFC 6265 default-path rule when attr is empty.
func cookiePath(attr, requestPath string) string {
	if attr != "" {
		return attr
	}
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(requestPath, "/")
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}
