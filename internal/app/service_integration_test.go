package service_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/okian/starsync/internal/adapters/source"
	service "github.com/okian/starsync/internal/app"
	"github.com/okian/starsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestServiceIntegration(t *testing.T) {
	Convey("Given the real catalog client against a recorded catalog", t, func() {
		var (
			mu   sync.Mutex
			hits = map[string]int{}
		)
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits[r.URL.Path]++
			mu.Unlock()

			base := srv.URL + "/api"
			switch r.URL.Path {
			case "/api/people/":
				fmt.Fprintf(w, `{"next":null,"results":[
					{"name":"Luke Skywalker","url":"%[1]s/people/1/","homeworld":"%[1]s/planets/1/"},
					{"name":"Owen Lars","url":"%[1]s/people/6/","homeworld":"%[1]s/planets/1/"},
					{"name":"Yoda","url":"%[1]s/people/20/","homeworld":"%[1]s/planets/28/"}]}`, base)
			case "/api/planets/1/":
				_, _ = w.Write([]byte(`{"name":"Tatooine","diameter":"10465","population":"200000","rotation_period":"23","orbital_period":"304"}`))
			case "/api/planets/28/":
				_, _ = w.Write([]byte(`{"name":"unknown","diameter":"0","population":"unknown","rotation_period":"0","orbital_period":"0"}`))
			case "/img/1.jpg":
				_, _ = w.Write(png)
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		src := source.New(srv.URL+"/api/", srv.URL+"/img/{}.jpg", source.WithFetchWorkers(2))
		dst := newMemoryDestination()

		Convey("When two runs are performed", func() {
			first, err := service.New(src, dst).Run(context.Background())
			So(err, ShouldBeNil)
			second, err := service.New(src, dst).Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the first creates everything and the second nothing", func() {
				So(first.Count(model.EntityPlanet, model.KindCreated), ShouldEqual, 2)
				So(first.Count(model.EntityCharacter, model.KindCreated), ShouldEqual, 3)
				So(second.Count(model.EntityPlanet, model.KindExisting), ShouldEqual, 2)
				So(second.Count(model.EntityCharacter, model.KindExisting), ShouldEqual, 3)
				So(dst.planetCreates, ShouldEqual, 2)
			})

			Convey("And shared homeworlds are fetched once per run", func() {
				mu.Lock()
				defer mu.Unlock()
				So(hits["/api/planets/1/"], ShouldEqual, 2)
				So(hits["/api/planets/28/"], ShouldEqual, 2)
			})

			Convey("And characters reference their homeworld record", func() {
				So(dst.records[dst.contacts["Owen Lars"]].planetID, ShouldEqual, dst.planets["Tatooine"])
				So(dst.records[dst.contacts["Yoda"]].planetID, ShouldEqual, dst.planets["unknown"])
				So(dst.records[dst.contacts["Luke Skywalker"]].portrait, ShouldResemble, png)
				So(dst.records[dst.contacts["Yoda"]].portrait, ShouldBeNil)
				So(dst.stored[dst.planets["unknown"]].Population, ShouldEqual, "0")
			})
		})
	})
}
