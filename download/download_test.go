package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jellysan-cli/jellysan/filesystem"
	"github.com/jellysan-cli/jellysan/source"
)

func init() {
	filesystem.SetMemMapFs()
}

func testItem(id string) *source.MediaItem {
	return &source.MediaItem{ID: id, Name: "Episode " + id, Kind: source.KindVideo}
}

func waitForStatus(itemID string, want Status) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if record, ok := StatusOf(itemID); ok && record.Status == want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestManager(t *testing.T) {
	Convey("Given a server that serves media bytes", t, func() {
		payload := []byte("not really a matroska file but good enough")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		manager := NewManager(2)

		Convey("A download completes and exposes its local path", func() {
			Reset(func() { _ = Remove("dl1") })

			item := testItem("dl1")
			So(manager.Start(context.Background(), item, server.URL+"/stream", "mkv"), ShouldBeNil)
			manager.Wait()

			So(waitForStatus("dl1", StatusCompleted), ShouldBeTrue)

			path, ok := LocalPath("dl1")
			So(ok, ShouldBeTrue)

			data, err := filesystem.API().ReadFile(path)
			So(err, ShouldBeNil)
			So(data, ShouldResemble, payload)

			Convey("Starting it again is rejected", func() {
				err := manager.Start(context.Background(), item, server.URL+"/stream", "mkv")
				So(err, ShouldNotBeNil)
			})

			Convey("Remove deletes the file and the record", func() {
				So(Remove("dl1"), ShouldBeNil)

				_, ok := LocalPath("dl1")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("A server error marks the download failed", func() {
			item := testItem("dl2")
			So(manager.Start(context.Background(), item, server.URL+"/missing", "mkv"), ShouldBeNil)
			manager.Wait()

			So(waitForStatus("dl2", StatusFailed), ShouldBeTrue)

			record, ok := StatusOf("dl2")
			So(ok, ShouldBeTrue)
			So(record.Error, ShouldContainSubstring, "404")

			_, hasPath := LocalPath("dl2")
			So(hasPath, ShouldBeFalse)
		})

		Convey("A batch skips items already queued", func() {
			items := []*source.MediaItem{testItem("dl3"), testItem("dl3")}
			urls := map[string]string{"dl3": server.URL + "/stream"}
			containers := map[string]string{"dl3": "mkv"}

			errs := manager.StartBatch(context.Background(), items, urls, containers)
			manager.Wait()

			So(errs, ShouldHaveLength, 1)
			So(waitForStatus("dl3", StatusCompleted), ShouldBeTrue)
		})
	})
}
