package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	apppkg "github.com/guidoenr/waterfall/internal/app"
	"github.com/guidoenr/waterfall/internal/settings"
)

type fakeApp struct {
	store *settings.Store
}

func newFakeApp(t *testing.T) *fakeApp {
	t.Helper()
	store, err := settings.NewStore(settings.Defaults())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return &fakeApp{store: store}
}

func (f *fakeApp) Status() apppkg.Snapshot {
	return apppkg.Snapshot{
		Strategy:    f.store.Get().Strategy,
		Description: "Line",
		Rate:        21.5,
		FrameLength: "0.0929",
		SampleRate:  44100,
		Live:        3,
		Settings:    f.store.Get(),
	}
}

func (f *fakeApp) Settings() settings.Settings { return f.store.Get() }

func (f *fakeApp) UpdateSettings(p settings.Patch) (settings.Settings, error) {
	return f.store.Update(p)
}

func (f *fakeApp) Strategies() []apppkg.StrategyInfo {
	return []apppkg.StrategyInfo{{ID: "line", Description: "Line"}, {ID: "bar", Description: "Bar"}}
}

func TestStatusEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewServer(newFakeApp(t), nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var snap apppkg.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Strategy != "line" || snap.FrameLength != "0.0929" || snap.Live != 3 {
		t.Fatalf("snapshot=%+v", snap)
	}
}

func TestStrategiesEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewServer(newFakeApp(t), nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/strategies")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var list []apppkg.StrategyInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[1].ID != "bar" {
		t.Fatalf("strategies=%+v", list)
	}
}

func TestSettingsPatch(t *testing.T) {
	app := newFakeApp(t)
	srv := httptest.NewServer(NewServer(app, nil).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/settings", "application/json",
		strings.NewReader(`{"strategy":"bar","shapes":20}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var out SettingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Settings.Strategy != "bar" || out.Settings.Shapes != 20 || out.Settings.FFTSize != 4096 {
		t.Fatalf("settings=%+v", out.Settings)
	}
	if got := app.Settings(); got != out.Settings {
		t.Fatalf("stored=%+v", got)
	}
	if len(out.FFTOptions) == 0 || out.FFTOptions[0] != settings.MinFFTOption {
		t.Fatalf("fft options=%v", out.FFTOptions)
	}
}

func TestSettingsRejectsInvalidPatch(t *testing.T) {
	app := newFakeApp(t)
	srv := httptest.NewServer(NewServer(app, nil).Handler())
	defer srv.Close()

	cases := []struct {
		body string
		code int
	}{
		{`{"fftSize":1000}`, http.StatusUnprocessableEntity},
		{`{"strategy":"spiral"}`, http.StatusUnprocessableEntity},
		{`{"smoothing":2}`, http.StatusUnprocessableEntity},
		{`{not json`, http.StatusBadRequest},
	}
	for _, c := range cases {
		resp, err := http.Post(srv.URL+"/api/settings", "application/json", strings.NewReader(c.body))
		if err != nil {
			t.Fatalf("post %s: %v", c.body, err)
		}
		resp.Body.Close()
		if resp.StatusCode != c.code {
			t.Fatalf("body=%s status=%d want=%d", c.body, resp.StatusCode, c.code)
		}
	}
	if app.Settings() != settings.Defaults() {
		t.Fatalf("invalid patch changed settings: %+v", app.Settings())
	}
}

func TestSettingsMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewServer(newFakeApp(t), nil).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/settings", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestWebSocketBroadcastsStatus(t *testing.T) {
	s := NewServer(newFakeApp(t), nil)
	s.interval = 10 * time.Millisecond
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.broadcastLoop(ctx)
	go s.statusUpdateLoop(ctx)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var snap apppkg.Snapshot
	if err := json.Unmarshal(msg, &snap); err != nil {
		t.Fatalf("decode %q: %v", msg, err)
	}
	if snap.Strategy != "line" || snap.SampleRate != 44100 {
		t.Fatalf("snapshot=%+v", snap)
	}
}
