package studieplus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/mboesen/studieplus-mcp/internal/gwt"
)

const (
	loginTimeout    = 10 * time.Second
	rpcTimeout      = 15 * time.Second
	downloadTimeout = 60 * time.Second

	// maxBodyBytes caps response reads; a full week of schedule data is
	// well under 1 MiB.
	maxBodyBytes = 8 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	loginAttempts = 3
	loginBackoff  = time.Second
)

// institutionPattern matches the school list the landing page inlines.
var institutionPattern = regexp.MustCompile(`const data = JSON\.parse\('(.+?)'\);`)

// RecordSink receives raw RPC response bodies for offline decoding.
type RecordSink interface {
	Record(ctx context.Context, service, method, body string) error
}

// ClientConfig carries the credentials and wiring for a portal client.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseURL when empty.
	BaseURL  string
	Username string
	Password string
	// School is the institution name as listed on the landing page.
	School string
	Logger zerolog.Logger
	// Capture, when set, receives every raw RPC response.
	Capture RecordSink
	// HTTPClient overrides the default cookie-jar client; tests use this.
	HTTPClient *http.Client
}

// Client speaks the portal's GWT-RPC dialect: cookie-based login, then
// pipe-delimited payload POSTs with permutation headers.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     ClientConfig
	log     zerolog.Logger

	mu       sync.Mutex
	loggedIn bool
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.School == "" {
		return nil, errors.New("studieplus: username, password, and school are required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar}
	}

	return &Client{
		http:    hc,
		baseURL: base,
		cfg:     cfg,
		log:     cfg.Logger,
	}, nil
}

// BaseURL returns the resolved portal base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Login authenticates against the portal. Rejected credentials are retried
// a fixed number of times with a fixed pause; discovery and transport
// failures are not retried.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	if c.loggedIn {
		return nil
	}

	var err error
	for attempt := 1; attempt <= loginAttempts; attempt++ {
		err = c.loginOnce(ctx)
		if err == nil {
			c.loggedIn = true
			c.log.Info().Str("school", c.cfg.School).Msg("logged in")
			return nil
		}
		if !errors.Is(err, ErrAuthFailed) {
			return err
		}
		c.log.Warn().Int("attempt", attempt).Msg("login rejected")
		if attempt < loginAttempts {
			select {
			case <-time.After(loginBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

func (c *Client) loginOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	instnr, err := c.findInstitution(ctx)
	if err != nil {
		return err
	}

	if c.http.Jar != nil {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
		c.http.Jar.SetCookies(u, []*http.Cookie{
			{Name: "instkey", Value: instnr, Path: "/"},
			{Name: "instnr", Value: instnr, Path: "/"},
		})
	}

	// First post selects the institution, second carries the credentials.
	if _, err := c.postLogin(ctx, url.Values{
		"instnr":     {instnr},
		"acr_values": {""},
		"how":        {"DIREKTE"},
	}); err != nil {
		return err
	}

	final, err := c.postLogin(ctx, url.Values{
		"instnr": {instnr},
		"user":   {c.cfg.Username},
		"pass":   {c.cfg.Password},
		"how":    {"DIREKTE"},
	})
	if err != nil {
		return err
	}

	// A successful login redirects to a signed-in page.
	if strings.Contains(final.Path, "skema") || strings.Contains(final.Path, "forside") {
		return nil
	}
	return fmt.Errorf("%w: landed on %s", ErrAuthFailed, final.Path)
}

func (c *Client) postLogin(ctx context.Context, form url.Values) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/login/doLogin", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post login: %w", err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return nil, fmt.Errorf("drain login response: %w", err)
	}
	return resp.Request.URL, nil
}

// findInstitution scrapes the landing page for the institution list and
// resolves the configured school name to its number.
func (c *Client) findInstitution(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("build landing request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch landing page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read landing page: %w", err)
	}

	m := institutionPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("%w: no institution list on landing page", ErrSchoolNotFound)
	}

	// The list is embedded as an escaped JS string literal.
	blob := strings.ReplaceAll(string(m[1]), `\`, "")
	for _, school := range gjson.Parse(blob).Array() {
		if school.Get("navn").String() == c.cfg.School {
			instnr := school.Get("instnr").String()
			c.log.Debug().Str("instnr", instnr).Msg("resolved institution")
			return instnr, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrSchoolNotFound, c.cfg.School)
}

// rpc posts one GWT-RPC payload and parses the envelope. Logging in first
// is the caller's concern via ensureLogin.
func (c *Client) rpc(ctx context.Context, serviceURL, payload, permutation, module, service, method string) (*gwt.Envelope, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "text/x-gwt-rpc; charset=UTF-8")
	req.Header.Set("X-GWT-Permutation", permutation)
	req.Header.Set("X-GWT-Module-Base", fmt.Sprintf("%s/%s/%s/", c.baseURL, module, module))
	req.Header.Set("modulename", module)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s.%s: %w", service, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s.%s response: %w", service, method, err)
	}
	text := string(body)

	if c.cfg.Capture != nil {
		if err := c.cfg.Capture.Record(ctx, service, method, text); err != nil {
			c.log.Warn().Err(err).Msg("raw-response capture failed")
		}
	}

	if strings.Contains(text, "IncompatibleRemoteServiceException") {
		return nil, fmt.Errorf("%s.%s: %w", service, method, ErrStaleHashes)
	}

	env, err := gwt.ParseEnvelope(text)
	if err != nil {
		return nil, fmt.Errorf("decode %s.%s response: %w", service, method, err)
	}
	return env, nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

// FetchSchedule retrieves the raw schedule envelope for a date range.
func (c *Client) FetchSchedule(ctx context.Context, start, end time.Time) (*gwt.Envelope, error) {
	return c.rpc(ctx,
		c.baseURL+"/skema/skema/skemaservice",
		schedulePayload(c.baseURL, start, end),
		skemaPermutation, "skema", "SkemaService", "hentEgnePersSkemaData")
}

// FetchAssignments retrieves the full hand-in list envelope.
func (c *Client) FetchAssignments(ctx context.Context) (*gwt.Envelope, error) {
	return c.rpc(ctx,
		c.baseURL+"/opgave/opgaveservice",
		assignmentsPayload(c.baseURL),
		opgavePermutation, "opgave", "OpgaveService", "getAlleAfleveringer")
}

// FetchAssignment retrieves a single hand-in by its per-student record ID.
func (c *Client) FetchAssignment(ctx context.Context, id int64) (*gwt.Envelope, error) {
	return c.rpc(ctx,
		c.baseURL+"/opgave/opgaveservice",
		assignmentPayload(c.baseURL, id),
		opgavePermutation, "opgave", "OpgaveService", "getAflevering")
}

// FetchContainerFiles lists the files attached to a lesson or assignment
// container.
func (c *Client) FetchContainerFiles(ctx context.Context, kind ContainerKind, containerID int64) (*gwt.Envelope, error) {
	module, permutation := "skema", skemaPermutation
	if kind == ContainerAssignment {
		module, permutation = "opgave", opgavePermutation
	}
	return c.rpc(ctx,
		fmt.Sprintf("%s/%s/ressourceservice", c.baseURL, module),
		containerFilesPayload(c.baseURL, kind, containerID),
		permutation, module, "RessourceService", "findRessourcerPerContainer")
}

// FetchSignedURL resolves a file ID to a short-lived signed download URL.
func (c *Client) FetchSignedURL(ctx context.Context, fileID int64) (string, error) {
	env, err := c.rpc(ctx,
		c.baseURL+"/skema/ressourceservice",
		signedURLPayload(c.baseURL, fileID),
		skemaPermutation, "skema", "RessourceService", "hentRessourceUrl")
	if err != nil {
		return "", err
	}
	s := gwt.NewStream(env)
	u := s.ReadString()
	if u == "" {
		return "", fmt.Errorf("hentRessourceUrl: empty url for file %d", fileID)
	}
	return u, nil
}

// FetchLessonNote retrieves the note envelope for a single lesson.
func (c *Client) FetchLessonNote(ctx context.Context, lessonID int64) (*gwt.Envelope, error) {
	return c.rpc(ctx,
		c.baseURL+"/skema/skemanoteservice",
		lessonNotePayload(c.baseURL, lessonID),
		skemaPermutation, "skema", "SkemaNote2Service", "hentNoteForSkema")
}

// Download fetches a signed URL's content. The session cookies ride along,
// which the storage backend ignores but the portal's own links need.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, string, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download file: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read file body: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return body, ct, nil
}
