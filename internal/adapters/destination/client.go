// Package destination stores planets and contacts in the business-data system
// over its XML-RPC object API.
package destination

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/okian/starsync/internal/domain/model"
	"github.com/okian/starsync/pkg/logger"
	"github.com/okian/starsync/pkg/metrics"
)

// RPC method names.
const (
	methodAuthenticate = "authenticate"
	methodExecuteKw    = "execute_kw"
	methodSearch       = "search"
	methodCreate       = "create"
)

// Defaults for Config fields left empty.
const (
	defaultPlanetModel  = "res.planet"
	defaultContactModel = "res.partner"
	defaultImageField   = "image_1920"
	defaultPlanetField  = "planet"
)

// Caller is one XML-RPC endpoint. *xmlrpc.Client satisfies it.
type Caller interface {
	Call(serviceMethod string, args interface{}, reply interface{}) error
	Close() error
}

// Config holds the endpoint, credentials and record-kind names.
type Config struct {
	URL      string
	Database string
	Username string
	Password string

	PlanetModel  string
	ContactModel string
	ImageField   string
	PlanetField  string
}

func (c *Config) applyDefaults() {
	c.URL = strings.TrimRight(c.URL, "/")
	if c.PlanetModel == "" {
		c.PlanetModel = defaultPlanetModel
	}
	if c.ContactModel == "" {
		c.ContactModel = defaultContactModel
	}
	if c.ImageField == "" {
		c.ImageField = defaultImageField
	}
	if c.PlanetField == "" {
		c.PlanetField = defaultPlanetField
	}
}

// Client is an authenticated session against the destination.
type Client struct {
	cfg       Config
	uid       int64
	common    Caller
	object    Caller
	transport http.RoundTripper
	logger    logger.Logger
}

// Dial connects both XML-RPC endpoints and authenticates once. The session uid
// is reused for every later call; it is never refreshed.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	cfg.applyDefaults()

	c := &Client{
		cfg:       cfg,
		transport: http.DefaultTransport,
		logger:    logger.Get().Named("destination"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.common == nil {
		common, err := xmlrpc.NewClient(cfg.URL+"/xmlrpc/2/common", c.transport)
		if err != nil {
			return nil, fmt.Errorf("dial common endpoint: %w", err)
		}
		object, err := xmlrpc.NewClient(cfg.URL+"/xmlrpc/2/object", c.transport)
		if err != nil {
			_ = common.Close()
			return nil, fmt.Errorf("dial object endpoint: %w", err)
		}
		c.common, c.object = common, object
	}

	if err := c.authenticate(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// UID returns the session identifier obtained at Dial.
func (c *Client) UID() int64 { return c.uid }

// Close releases both endpoints.
func (c *Client) Close() error {
	errCommon := c.common.Close()
	errObject := c.object.Close()
	if errCommon != nil {
		return errCommon
	}
	return errObject
}

func (c *Client) authenticate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var reply interface{}
	args := []interface{}{c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]interface{}{}}
	if err := c.common.Call(methodAuthenticate, args, &reply); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	// A rejected login comes back as boolean false rather than a fault.
	uid, ok := toInt64(reply)
	if !ok || uid <= 0 {
		return fmt.Errorf("%w: database %q user %q", ErrAuthentication, c.cfg.Database, c.cfg.Username)
	}
	c.uid = uid

	c.logger.Info(ctx, "authenticated",
		logger.String("url", c.cfg.URL),
		logger.String("database", c.cfg.Database),
		logger.Int64("uid", uid),
	)
	return nil
}

// FindPlanet returns the first planet record named exactly name.
func (c *Client) FindPlanet(ctx context.Context, name string) (int64, bool, error) {
	return c.search(ctx, c.cfg.PlanetModel, name)
}

// FindCharacter returns the first contact record named exactly name.
func (c *Client) FindCharacter(ctx context.Context, name string) (int64, bool, error) {
	return c.search(ctx, c.cfg.ContactModel, name)
}

// CreatePlanet stores p as-is; callers normalize unknown values beforehand.
func (c *Client) CreatePlanet(ctx context.Context, p model.Planet) (int64, error) {
	vals := map[string]interface{}{
		"name":            p.Name,
		"diameter":        p.Diameter,
		"population":      p.Population,
		"rotation_period": p.RotationPeriod,
		"orbital_period":  p.OrbitalPeriod,
	}
	return c.create(ctx, c.cfg.PlanetModel, p.Name, vals)
}

// CreateCharacter stores a contact linked to planetID. The image attribute is
// only sent when a portrait is present.
func (c *Client) CreateCharacter(ctx context.Context, ch model.Character, portrait []byte, planetID int64) (int64, error) {
	vals := map[string]interface{}{
		"name":            ch.Name,
		c.cfg.PlanetField: planetID,
	}
	if len(portrait) > 0 {
		vals[c.cfg.ImageField] = base64.StdEncoding.EncodeToString(portrait)
	}
	return c.create(ctx, c.cfg.ContactModel, ch.Name, vals)
}

func (c *Client) search(ctx context.Context, modelName, name string) (int64, bool, error) {
	domain := []interface{}{[]interface{}{"name", "=", name}}

	reply, err := c.execute(ctx, modelName, methodSearch, []interface{}{domain})
	if err != nil {
		return 0, false, &OpError{Op: methodSearch, Model: modelName, Name: name, Err: err}
	}

	if reply == nil {
		return 0, false, nil
	}
	ids, ok := reply.([]interface{})
	if !ok {
		return 0, false, &OpError{Op: methodSearch, Model: modelName, Name: name,
			Err: fmt.Errorf("%w: %T", ErrUnexpectedType, reply)}
	}
	if len(ids) == 0 {
		return 0, false, nil
	}

	id, ok := toInt64(ids[0])
	if !ok {
		return 0, false, &OpError{Op: methodSearch, Model: modelName, Name: name,
			Err: fmt.Errorf("%w: id %T", ErrUnexpectedType, ids[0])}
	}
	return id, true, nil
}

func (c *Client) create(ctx context.Context, modelName, name string, vals map[string]interface{}) (int64, error) {
	reply, err := c.execute(ctx, modelName, methodCreate, []interface{}{vals})
	if err != nil {
		return 0, &OpError{Op: methodCreate, Model: modelName, Name: name, Err: err}
	}

	id, ok := toInt64(reply)
	if !ok {
		return 0, &OpError{Op: methodCreate, Model: modelName, Name: name,
			Err: fmt.Errorf("%w: %T", ErrUnexpectedType, reply)}
	}
	return id, nil
}

// execute runs execute_kw(db, uid, password, model, method, args).
func (c *Client) execute(ctx context.Context, modelName, method string, args []interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := []interface{}{c.cfg.Database, c.uid, c.cfg.Password, modelName, method, args}

	start := time.Now()
	var reply interface{}
	err := c.object.Call(methodExecuteKw, params, &reply)
	metrics.ObserveDestinationCall(modelName, method, err, time.Since(start))

	c.logger.Debug(ctx, "rpc call",
		logger.String("model", modelName),
		logger.String("method", method),
		logger.Any("ok", err == nil),
	)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	default:
		return 0, false
	}
}
