package source_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/starsync/internal/adapters/source"
	"github.com/okian/starsync/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var jpeg = []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

// catalog is a minimal in-process stand-in for the public API.
type catalog struct {
	mu      sync.Mutex
	hits    map[string]int
	srv     *httptest.Server
	planets map[string]string
	delay   map[string]time.Duration
}

func newCatalog() *catalog {
	c := &catalog{
		hits:  make(map[string]int),
		delay: make(map[string]time.Duration),
	}
	c.planets = map[string]string{
		"1": `{"name":"Tatooine","diameter":"10465","population":"200000","rotation_period":"23","orbital_period":"304"}`,
		"8": `{"name":"Naboo","diameter":"12120","population":"4500000000","rotation_period":"26","orbital_period":"312"}`,
		"28": `{"name":"unknown","diameter":"0","population":"unknown","rotation_period":"0","orbital_period":"0"}`,
	}
	c.srv = httptest.NewServer(http.HandlerFunc(c.serve))
	return c
}

func (c *catalog) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits[r.URL.Path]++
	c.mu.Unlock()

	base := c.srv.URL + "/api"
	switch {
	case r.URL.Path == "/api/people/" && r.URL.Query().Get("page") == "":
		fmt.Fprintf(w, `{"count":3,"next":"%s/people/?page=2","results":[
			{"name":"Luke Skywalker","url":"%s/people/1/","homeworld":"%s/planets/1/"},
			{"name":"C-3PO","url":"%s/people/2/","homeworld":"%s/planets/1/"}]}`,
			base, base, base, base, base)
	case r.URL.Path == "/api/people/" && r.URL.Query().Get("page") == "2":
		fmt.Fprintf(w, `{"count":3,"next":null,"results":[
			{"name":"Padme Amidala","url":"%s/people/35/","homeworld":"%s/planets/8/"},
			{"name":"Ratts Tyerel","url":"%s/people/99/","homeworld":"%s/planets/28/"}]}`,
			base, base, base, base)
	case strings.HasPrefix(r.URL.Path, "/api/planets/"):
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/planets/"), "/")
		if d := c.delay[id]; d > 0 {
			time.Sleep(d)
		}
		body, ok := c.planets[id]
		if !ok {
			http.Error(w, `{"detail":"Not found"}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	case r.URL.Path == "/img/1.jpg":
		_, _ = w.Write(jpeg)
	case r.URL.Path == "/img/3.jpg":
		_, _ = w.Write([]byte("<html><body>placeholder</body></html>"))
	default:
		http.NotFound(w, r)
	}
}

func (c *catalog) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *catalog) client(opts ...source.Option) *source.Client {
	return source.New(c.srv.URL+"/api/", c.srv.URL+"/img/{}.jpg", opts...)
}

func TestListCharacters(t *testing.T) {
	Convey("Given a catalog with two pages of people", t, func() {
		cat := newCatalog()
		defer cat.srv.Close()
		ctx := context.Background()

		Convey("When listing characters", func() {
			chars, err := cat.client().ListCharacters(ctx)

			Convey("Then every page is concatenated in order", func() {
				So(err, ShouldBeNil)
				So(len(chars), ShouldEqual, 4)
				So(chars[0].Name, ShouldEqual, "Luke Skywalker")
				So(chars[0].ID, ShouldEqual, "1")
				So(chars[0].HomeworldID, ShouldEqual, "1")
				So(chars[2].Name, ShouldEqual, "Padme Amidala")
				So(chars[2].ID, ShouldEqual, "35")
				So(chars[3].HomeworldID, ShouldEqual, "28")
				So(cat.count("/api/people/"), ShouldEqual, 2)
			})
		})
	})
}

func TestListHomeworlds(t *testing.T) {
	Convey("Given characters that share homeworlds", t, func() {
		cat := newCatalog()
		defer cat.srv.Close()
		ctx := context.Background()

		Convey("When listing homeworlds sequentially", func() {
			hw, err := cat.client().ListHomeworlds(ctx)

			Convey("Then each planet is fetched once and kept in first-seen order", func() {
				So(err, ShouldBeNil)
				So(hw.Len(), ShouldEqual, 3)
				So(cat.count("/api/planets/1/"), ShouldEqual, 1)
				So(cat.count("/api/planets/8/"), ShouldEqual, 1)

				all := hw.All()
				So(all[0].ID, ShouldEqual, "1")
				So(all[0].Name, ShouldEqual, "Tatooine")
				So(all[0].RotationPeriod, ShouldEqual, "23")
				So(all[1].ID, ShouldEqual, "8")
				So(all[2].Population, ShouldEqual, "unknown")
			})
		})

		Convey("When listing homeworlds with parallel fetches that finish out of order", func() {
			cat.delay["1"] = 50 * time.Millisecond
			hw, err := cat.client(source.WithFetchWorkers(3)).ListHomeworlds(ctx)

			Convey("Then order still follows the listing", func() {
				So(err, ShouldBeNil)
				all := hw.All()
				So(len(all), ShouldEqual, 3)
				So(all[0].Name, ShouldEqual, "Tatooine")
				So(all[1].Name, ShouldEqual, "Naboo")
				So(cat.count("/api/planets/1/"), ShouldEqual, 1)
			})
		})

		Convey("When a homeworld is missing upstream", func() {
			delete(cat.planets, "8")

			Convey("Then the status error is fatal for sequential fetches", func() {
				hw, err := cat.client().ListHomeworlds(ctx)
				So(hw, ShouldBeNil)
				So(errors.Is(err, source.ErrStatus), ShouldBeTrue)

				var se *source.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Code, ShouldEqual, http.StatusNotFound)
				So(se.Reason, ShouldEqual, "Not Found")
				So(se.Body, ShouldContainSubstring, "Not found")
				So(se.URL, ShouldEndWith, "/api/planets/8/")
			})

			Convey("And for parallel fetches", func() {
				hw, err := cat.client(source.WithFetchWorkers(4)).ListHomeworlds(ctx)
				So(hw, ShouldBeNil)
				So(errors.Is(err, source.ErrStatus), ShouldBeTrue)
			})
		})
	})
}

func TestSourceFailures(t *testing.T) {
	Convey("Given a catalog that fails", t, func() {
		ctx := context.Background()

		Convey("When the listing returns a server error", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			_, err := source.New(srv.URL, srv.URL+"/{}.jpg").ListCharacters(ctx)

			Convey("Then a StatusError carrying the body is returned", func() {
				So(errors.Is(err, source.ErrStatus), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "503")
				So(err.Error(), ShouldContainSubstring, "maintenance")
			})
		})

		Convey("When the server is unreachable", func() {
			srv := httptest.NewServer(http.NotFoundHandler())
			url := srv.URL
			srv.Close()

			_, err := source.New(url, url+"/{}.jpg").ListCharacters(ctx)

			Convey("Then a ConnectivityError is returned", func() {
				So(errors.Is(err, source.ErrConnectivity), ShouldBeTrue)
				var ce *source.ConnectivityError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.URL, ShouldEqual, url+"/people/")
			})
		})

		Convey("When the listing is not JSON", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			}))
			defer srv.Close()

			_, err := source.New(srv.URL, srv.URL+"/{}.jpg").ListCharacters(ctx)

			Convey("Then a decode error is returned", func() {
				So(errors.Is(err, source.ErrDecode), ShouldBeTrue)
			})
		})
	})
}

func TestFetchPortrait(t *testing.T) {
	Convey("Given portraits of varying availability", t, func() {
		cat := newCatalog()
		defer cat.srv.Close()
		ctx := context.Background()
		c := cat.client()

		Convey("When the portrait exists", func() {
			img, ok := c.FetchPortrait(ctx, "1")

			Convey("Then its bytes are returned", func() {
				So(ok, ShouldBeTrue)
				So(img, ShouldResemble, jpeg)
			})
		})

		Convey("When the portrait is missing", func() {
			img, ok := c.FetchPortrait(ctx, "2")

			Convey("Then no image is returned and nothing fails", func() {
				So(ok, ShouldBeFalse)
				So(img, ShouldBeNil)
				So(cat.count("/img/2.jpg"), ShouldEqual, 1)
			})
		})

		Convey("When the portrait endpoint answers with a page instead of an image", func() {
			img, ok := c.FetchPortrait(ctx, "3")

			Convey("Then it is treated as missing", func() {
				So(ok, ShouldBeFalse)
				So(img, ShouldBeNil)
			})
		})

		Convey("When the template uses a printf verb", func() {
			img, ok := source.New(cat.srv.URL+"/api", cat.srv.URL+"/img/%s.jpg").FetchPortrait(ctx, "1")

			Convey("Then the ID is substituted the same way", func() {
				So(ok, ShouldBeTrue)
				So(len(img), ShouldEqual, len(jpeg))
			})
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a client throttled to a handful of requests per second", t, func() {
		cat := newCatalog()
		defer cat.srv.Close()

		c := cat.client(source.WithRateLimit(20, 1))

		Convey("When the context is cancelled while waiting", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := c.ListCharacters(ctx)

			Convey("Then the wait fails as a connectivity error", func() {
				So(errors.Is(err, source.ErrConnectivity), ShouldBeTrue)
			})
		})

		Convey("When requests fit in the budget", func() {
			chars, err := c.ListCharacters(context.Background())

			Convey("Then they succeed", func() {
				So(err, ShouldBeNil)
				So(len(chars), ShouldEqual, 4)
			})
		})
	})
}
