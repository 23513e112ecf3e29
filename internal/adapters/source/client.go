// Package source reads characters, homeworlds and portraits from the public
// catalog API.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/okian/starsync/internal/domain/dedupe"
	"github.com/okian/starsync/internal/domain/model"
	"github.com/okian/starsync/pkg/logger"
	"github.com/okian/starsync/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout   = 30 * time.Second
	defaultWorkers   = 1
	defaultUserAgent = "starsync/1.0"
	maxErrorBody     = 512
)

// Endpoint labels used for metrics and logs.
const (
	endpointPeople   = "people"
	endpointPlanet   = "planet"
	endpointPortrait = "portrait"
)

type peoplePage struct {
	Results []person `json:"results"`
	Next    *string  `json:"next"`
}

type person struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Homeworld string `json:"homeworld"`
}

type planet struct {
	Name           string `json:"name"`
	Diameter       string `json:"diameter"`
	Population     string `json:"population"`
	RotationPeriod string `json:"rotation_period"`
	OrbitalPeriod  string `json:"orbital_period"`
}

// Client talks to the source catalog over HTTP.
type Client struct {
	baseURL         string
	pictureTemplate string

	http      *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	workers   int
	userAgent string

	logger logger.Logger
}

// New creates a catalog client. pictureTemplate carries "{}" or "%s" where the
// character ID goes.
func New(baseURL, pictureTemplate string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		pictureTemplate: pictureTemplate,
		timeout:         defaultTimeout,
		workers:         defaultWorkers,
		userAgent:       defaultUserAgent,
		logger:          logger.Get().Named("source"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}

	return c
}

// ListCharacters follows the people listing until next is null and returns
// every result in page order.
func (c *Client) ListCharacters(ctx context.Context) ([]model.Character, error) {
	var characters []model.Character
	err := c.eachPerson(ctx, func(p person) {
		characters = append(characters, model.NewCharacter(p.Name, p.URL, p.Homeworld))
	})
	if err != nil {
		return nil, err
	}
	return characters, nil
}

// ListHomeworlds pages the people listing, collects the distinct homeworld
// URLs and fetches each planet once. The result keeps first-seen order.
func (c *Client) ListHomeworlds(ctx context.Context) (*model.Homeworlds, error) {
	urls := dedupe.NewOrderedSet(dedupe.WithSkip(func(u string) bool { return u == "" }))
	err := c.eachPerson(ctx, func(p person) {
		urls.SeenAndRecord(ctx, p.Homeworld)
	})
	if err != nil {
		return nil, err
	}

	planets, err := c.fetchPlanets(ctx, urls.Keys(ctx))
	if err != nil {
		return nil, err
	}

	homeworlds := model.NewHomeworlds()
	for _, p := range planets {
		homeworlds.Add(p)
	}
	return homeworlds, nil
}

// FetchPortrait downloads the character's image. Any failure, including a body
// that is not an image, yields (nil, false) and is only logged.
func (c *Client) FetchPortrait(ctx context.Context, characterID string) ([]byte, bool) {
	url := c.portraitURL(characterID)

	body, err := c.get(ctx, endpointPortrait, url)
	if err != nil {
		c.logger.Warn(ctx, "portrait unavailable",
			logger.String("characterID", characterID),
			logger.String("url", url),
			logger.Error(err),
		)
		return nil, false
	}

	mtype := mimetype.Detect(body)
	if !strings.HasPrefix(mtype.String(), "image/") {
		c.logger.Warn(ctx, "portrait is not an image",
			logger.String("characterID", characterID),
			logger.String("mime", mtype.String()),
		)
		return nil, false
	}
	return body, true
}

// FetchPlanet retrieves one homeworld by URL.
func (c *Client) FetchPlanet(ctx context.Context, url string) (model.Planet, error) {
	body, err := c.get(ctx, endpointPlanet, url)
	if err != nil {
		return model.Planet{}, err
	}

	var p planet
	if err := json.Unmarshal(body, &p); err != nil {
		return model.Planet{}, fmt.Errorf("%w: %s: %w", ErrDecode, url, err)
	}

	return model.Planet{
		ID:             model.IDFromURL(url),
		Name:           p.Name,
		URL:            url,
		Diameter:       p.Diameter,
		Population:     p.Population,
		RotationPeriod: p.RotationPeriod,
		OrbitalPeriod:  p.OrbitalPeriod,
	}, nil
}

// eachPerson walks every page of the people listing.
func (c *Client) eachPerson(ctx context.Context, fn func(person)) error {
	url := c.baseURL + "/people/"
	for url != "" {
		body, err := c.get(ctx, endpointPeople, url)
		if err != nil {
			return err
		}

		var page peoplePage
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDecode, url, err)
		}
		for _, p := range page.Results {
			fn(p)
		}

		url = ""
		if page.Next != nil {
			url = *page.Next
		}
	}
	return nil
}

// get performs a throttled GET and returns the body of a 200 reply.
func (c *Client) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ConnectivityError{URL: url, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ConnectivityError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Info(ctx, "request running", logger.String("url", url))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveSourceRequest(endpoint, 0, time.Since(start))
		return nil, &ConnectivityError{URL: url, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug(ctx, "failed to close response body", logger.Error(cerr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveSourceRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &ConnectivityError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{
			URL:    url,
			Code:   resp.StatusCode,
			Reason: http.StatusText(resp.StatusCode),
			Body:   string(body),
		}
	}
	return body, nil
}

func (c *Client) portraitURL(characterID string) string {
	if strings.Contains(c.pictureTemplate, "{}") {
		return strings.ReplaceAll(c.pictureTemplate, "{}", characterID)
	}
	return strings.ReplaceAll(c.pictureTemplate, "%s", characterID)
}
