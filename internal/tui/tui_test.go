package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"specviz/internal/analyzer"
	"specviz/internal/audio"
	"specviz/internal/config"
	"specviz/internal/transport"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeFrames struct {
	frame transport.Frame
	calls int
}

func (f *fakeFrames) Latest() transport.Frame {
	f.calls++
	return f.frame
}

func readings(mags ...float64) []analyzer.FrequencyReading {
	out := make([]analyzer.FrequencyReading, len(mags))
	lo := 20.0
	for i, m := range mags {
		out[i] = analyzer.FrequencyReading{FreqLo: lo, FreqHi: lo * 2, Magnitude: m}
		lo *= 2
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRenderBars(t *testing.T) {
	rows := RenderBars(readings(0, 0.5, 1, 0.25), 8, 4)
	want := []string{
		"    █  ",
		"    █  ",
		"  █ █  ",
		"  █ █ █",
	}
	if len(rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("Row %d: expected %q, got %q", i, want[i], rows[i])
		}
	}
}

func TestRenderBarsPartialCell(t *testing.T) {
	rows := RenderBars(readings(0.5), 1, 1)
	if rows[0] != "▄" {
		t.Errorf("Expected half block, got %q", rows[0])
	}
}

func TestRenderBarsClampsMagnitude(t *testing.T) {
	rows := RenderBars(readings(-1, 2), 2, 2)
	for i, row := range rows {
		if row != " █" {
			t.Errorf("Row %d: expected %q, got %q", i, " █", row)
		}
	}
}

func TestRenderBarsEmpty(t *testing.T) {
	rows := RenderBars(nil, 5, 3)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row != "     " {
			t.Errorf("Expected blank row, got %q", row)
		}
	}
}

func TestFitLevelsMergesBands(t *testing.T) {
	levels := fitLevels(readings(0.1, 0.9, 0.3, 0.2, 0, 0, 0.4, 0.5), 4)
	want := []float64{0.9, 0.3, 0, 0.5}
	if len(levels) != len(want) {
		t.Fatalf("Expected %d levels, got %d", len(want), len(levels))
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Errorf("Level %d: expected %v, got %v", i, want[i], levels[i])
		}
	}
}

func TestRenderAxis(t *testing.T) {
	axis := renderAxis(readings(1, 1, 1), 40)
	if !strings.HasPrefix(axis, "20") || !strings.HasSuffix(axis, "160") {
		t.Errorf("Unexpected axis %q", axis)
	}
	if !strings.Contains(axis, "40") {
		t.Errorf("Expected middle label in %q", axis)
	}
	if len(axis) != 40 {
		t.Errorf("Expected axis width 40, got %d", len(axis))
	}
}

func TestFormatHz(t *testing.T) {
	tests := map[float64]string{20: "20", 999: "999", 1000: "1.0k", 20000: "20.0k"}
	for in, want := range tests {
		if got := formatHz(in); got != want {
			t.Errorf("formatHz(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestSpectrumModelTick(t *testing.T) {
	src := &fakeFrames{frame: transport.Frame{Seq: 7, Readings: readings(0.2, 1, 0.4)}}
	m := NewSpectrumModel(src, 10*time.Millisecond, "test device")

	if m.Init() == nil {
		t.Fatal("Expected Init to schedule a tick")
	}

	next, cmd := m.Update(frameTickMsg(time.Now()))
	if cmd == nil {
		t.Error("Expected tick to reschedule itself")
	}
	model := next.(SpectrumModel)
	if src.calls != 1 {
		t.Errorf("Expected one Latest call, got %d", src.calls)
	}
	if model.frame.Seq != 7 {
		t.Errorf("Expected frame 7, got %d", model.frame.Seq)
	}

	view := model.View()
	for _, want := range []string{"test device", "frame 7", "40-80"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}
}

func TestSpectrumModelPause(t *testing.T) {
	src := &fakeFrames{frame: transport.Frame{Seq: 1, Readings: readings(1)}}
	m := NewSpectrumModel(src, time.Millisecond, "")

	next, _ := m.Update(frameTickMsg(time.Now()))
	next, _ = next.Update(runes("p"))
	src.frame.Seq = 2
	next, _ = next.Update(frameTickMsg(time.Now()))

	model := next.(SpectrumModel)
	if model.frame.Seq != 1 {
		t.Errorf("Expected paused view to keep frame 1, got %d", model.frame.Seq)
	}
	if !strings.Contains(model.View(), "[paused]") {
		t.Error("Expected paused marker in view")
	}
}

func TestSpectrumModelWaiting(t *testing.T) {
	m := NewSpectrumModel(&fakeFrames{}, time.Millisecond, "")
	if !strings.Contains(m.View(), "Waiting for audio") {
		t.Error("Expected waiting message before the first frame")
	}
}

func TestSpectrumModelQuit(t *testing.T) {
	m := NewSpectrumModel(&fakeFrames{}, time.Millisecond, "")
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestSpectrumModelResize(t *testing.T) {
	m := NewSpectrumModel(&fakeFrames{}, time.Millisecond, "")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model := next.(SpectrumModel)
	if model.width != 120 || model.height != 40 {
		t.Errorf("Expected 120x40, got %dx%d", model.width, model.height)
	}
}

func stubDevices(t *testing.T, devices []audio.Device, err error) {
	t.Helper()
	orig := devicesFunc
	devicesFunc = func() ([]audio.Device, error) { return devices, err }
	t.Cleanup(func() { devicesFunc = orig })
}

var testDevices = []audio.Device{
	{ID: 0, Name: "Speakers", Backend: config.BackendLoopback, IsDefault: true},
	{ID: 1, Name: "HDMI Output", Backend: config.BackendLoopback},
	{ID: 2, Name: "Monitor of Speakers", Backend: config.BackendInput,
		MaxInputChannels: 2, DefaultSampleRate: 48000, LowLatencyMs: 8.7, HighLatencyMs: 34.8},
}

func loadedDeviceModel(t *testing.T) DeviceListModel {
	t.Helper()
	stubDevices(t, testDevices, nil)

	var m tea.Model = NewDeviceListModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 60})
	m, _ = m.Update(fetchDevices())
	return m.(DeviceListModel)
}

func TestDeviceListRendersBackends(t *testing.T) {
	m := loadedDeviceModel(t)
	view := m.View()
	for _, want := range []string{"Speakers", "HDMI Output", "Monitor of Speakers",
		audio.BackendTitle(config.BackendLoopback), audio.BackendTitle(config.BackendInput), "48000 Hz"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}
}

func TestDeviceListNavigation(t *testing.T) {
	var m tea.Model = loadedDeviceModel(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(DeviceListModel).selectedIndex; got != 2 {
		t.Fatalf("Expected selection clamped at 2, got %d", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model := m.(DeviceListModel)
	if model.activeScreen != DetailScreen {
		t.Fatal("Expected detail screen after enter")
	}
	view := model.View()
	for _, want := range []string{"--backend input --device 2", "8.7 / 34.8 ms", "Device Details"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(DeviceListModel).activeScreen != ListScreen {
		t.Error("Expected list screen after esc")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := m.(DeviceListModel).selectedIndex; got != 1 {
		t.Errorf("Expected selection 1 after up, got %d", got)
	}
}

func TestDeviceListError(t *testing.T) {
	stubDevices(t, nil, errors.New("no backends"))

	var m tea.Model = NewDeviceListModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(fetchDevices())
	if !strings.Contains(m.View(), "no backends") {
		t.Errorf("Expected error in view, got %q", m.View())
	}
}

func TestDeviceListEmpty(t *testing.T) {
	stubDevices(t, []audio.Device{}, nil)

	var m tea.Model = NewDeviceListModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(fetchDevices())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	model := m.(DeviceListModel)
	if model.activeScreen != ListScreen {
		t.Error("Expected enter to be ignored without devices")
	}
	if !strings.Contains(model.View(), "No audio devices found.") {
		t.Error("Expected empty message")
	}
}
