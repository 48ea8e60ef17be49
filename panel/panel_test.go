package panel

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, DefaultSettings(), s)

	c, err := ParseHexColor(s.Color)
	require.NoError(t, err)
	assert.InDelta(t, float32(0x36)/255, c[0], 1e-6)
	assert.InDelta(t, float32(0x2c)/255, c[1], 1e-6)
	assert.InDelta(t, float32(0xb7)/255, c[2], 1e-6)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("ff8000")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, float32(0x80) / 255, 0}, c)

	for _, bad := range []string{"", "#fff", "#gggggg", "#12345678"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "#362cb7", FormatHexColor(mustColor(t, "#362cb7")))
	assert.Equal(t, "#ff0000", FormatHexColor(mgl32.Vec3{2, -1, 0}))
}

func mustColor(t *testing.T, s string) mgl32.Vec3 {
	t.Helper()
	c, err := ParseHexColor(s)
	require.NoError(t, err)
	return c
}

func TestParseOverlaysDefaults(t *testing.T) {
	s, err := Parse([]byte("color: \"#00ff00\"\nvisible: false\ny_position: 7\n"))
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", s.Color)
	assert.False(t, s.Visible)
	assert.Equal(t, float32(MaxYPosition), s.YPosition)
	assert.Equal(t, DefaultSettings().RGBPersist, s.RGBPersist)
	assert.Equal(t, DefaultSettings().NoiseScale, s.NoiseScale)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("color: nope\n"))
	assert.ErrorContains(t, err, "color")

	_, err = Parse([]byte("scene_blend: multiply\n"))
	assert.ErrorContains(t, err, "scene_blend")

	_, err = Parse([]byte(":\n  - ["))
	assert.Error(t, err)
}

func TestValidateClamps(t *testing.T) {
	s := DefaultSettings()
	s.YPosition = -5
	s.AmbientLightIntensity = 50
	s.RGBPersist = 1.5
	require.NoError(t, s.Validate())
	assert.Equal(t, float32(MinYPosition), s.YPosition)
	assert.Equal(t, float32(MaxAmbientIntensity), s.AmbientLightIntensity)
	assert.Equal(t, float32(1), s.RGBPersist)
}

func TestBlend(t *testing.T) {
	s := DefaultSettings()
	b, err := s.Blend()
	require.NoError(t, err)
	assert.Equal(t, gpu.BlendAlpha, b)

	s.SceneBlend = "Additive"
	b, err = s.Blend()
	require.NoError(t, err)
	assert.Equal(t, gpu.BlendAdditive, b)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestQueueDrainsInOrder(t *testing.T) {
	var q Queue
	assert.Nil(t, q.Drain())

	q.Trigger(Spin)
	q.Trigger(ToggleVisibility)
	q.Apply(DefaultSettings())
	assert.Equal(t, 3, q.Len())

	events := q.Drain()
	require.Len(t, events, 3)
	assert.Equal(t, Spin, events[0].Kind)
	assert.Equal(t, ToggleVisibility, events[1].Kind)
	assert.Equal(t, ApplySettings, events[2].Kind)
	assert.Equal(t, DefaultSettings(), events[2].Settings)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, "spin", Spin.String())
}

func TestQueueConcurrentPush(t *testing.T) {
	var q Queue
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Trigger(RetargetColor)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.Drain(), 800)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("visible: true\n"), 0o644))

	var q Queue
	w, err := NewWatcher(nil, path, &q, 20*time.Millisecond)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("visible: false\ncolor: \"#102030\"\n"), 0o644))

	var events []Event
	require.Eventually(t, func() bool {
		events = append(events, q.Drain()...)
		return len(events) > 0 && !events[len(events)-1].Settings.Visible
	}, 5*time.Second, 10*time.Millisecond)

	last := events[len(events)-1]
	assert.Equal(t, ApplySettings, last.Kind)
	assert.False(t, last.Settings.Visible)
	assert.Equal(t, "#102030", last.Settings.Color)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("visible: true\n"), 0o644))

	var q Queue
	w, err := NewWatcher(nil, path, &q, 10*time.Millisecond)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, q.Len())

	cancel()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not exit")
	}
	require.NoError(t, w.Stop())
}
