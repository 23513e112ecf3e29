package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	ctx := context.Background()
	logger.Info(ctx, "test message", String("k", "v"))
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("source")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	namedLogger.Info(context.Background(), "test message")
	if !bytes.Contains(buf.Bytes(), []byte("component=source")) {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}

func TestLoggerFileAndStdout(t *testing.T) {
	Convey("Given a logger initialized with a file", t, func() {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "run.log")

		err := Init(WithOutput(&buf), WithFile(path))
		So(err, ShouldBeNil)
		defer func() { _ = Close() }()

		Convey("When a record is written", func() {
			Get().With(String("run_id", "abc")).Info(context.Background(), "planet created", Int64("id", 7))
			So(Sync(), ShouldBeNil)

			Convey("Then both the writer and the file receive it", func() {
				So(buf.String(), ShouldContainSubstring, "planet created")
				So(buf.String(), ShouldContainSubstring, "run_id=abc")

				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "planet created")
			})
		})
	})

	Convey("Given an unwritable log file path", t, func() {
		err := Init(WithFile(filepath.Join(t.TempDir(), "missing", "run.log")))

		Convey("Then Init reports the failure", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("debug"), ShouldBeNil)
		So(SetLevelString("WARNING"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}
