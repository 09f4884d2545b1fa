package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

// storedCookie is the on-disk form of one session cookie.
type storedCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	Session  bool    `json:"session"`
	SameSite string  `json:"sameSite,omitempty"`
}

// CookieJar persists the browser session cookies in a JSON file.
// An empty path disables persistence.
type CookieJar struct {
	path string
	mu   sync.Mutex
}

// NewCookieJar creates a jar backed by the file at path.
func NewCookieJar(path string) *CookieJar {
	return &CookieJar{path: path}
}

// Load reads the snapshot. A missing file yields no cookies and no error.
func (j *CookieJar) Load() ([]*network.CookieParam, error) {
	if j.path == "" {
		return nil, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file: %w", err)
	}

	params := make([]*network.CookieParam, 0, len(stored))
	for _, c := range stored {
		if c.Name == "" {
			continue
		}
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if !c.Session && c.Expires > 0 {
			sec := int64(c.Expires)
			nsec := int64((c.Expires - float64(sec)) * float64(time.Second))
			expires := cdp.TimeSinceEpoch(time.Unix(sec, nsec))
			p.Expires = &expires
		}
		params = append(params, p)
	}
	return params, nil
}

// Save overwrites the snapshot with cookies. The file is replaced atomically.
func (j *CookieJar) Save(cookies []*network.Cookie) error {
	if j.path == "" {
		return nil
	}

	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		stored = append(stored, storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			Session:  c.Session,
			SameSite: string(c.SameSite),
		})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	dir := filepath.Dir(j.path)
	tmp, err := os.CreateTemp(dir, ".cookies-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary cookie file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		return fmt.Errorf("failed to replace cookie file: %w", err)
	}
	return nil
}
