package render

import (
	"math"
	"testing"

	"github.com/boyangli/sentinelmap-dashboard/models"
)

func TestPlaceholderIsCenteredWithNoMarkers(t *testing.T) {
	r := NewRenderer(BaseCenter, 0, "")
	m := r.Placeholder()

	if !m.Placeholder {
		t.Error("Expected placeholder flag")
	}
	if m.Center != BaseCenter {
		t.Errorf("Expected center %v, got %v", BaseCenter, m.Center)
	}
	if m.Zoom != DefaultZoom || m.Style != DefaultStyle {
		t.Errorf("Expected default zoom/style, got %v/%s", m.Zoom, m.Style)
	}
	if m.Points == nil || len(m.Points) != 0 {
		t.Errorf("Expected zero markers, got %v", m.Points)
	}
}

func TestRenderEmptyTable(t *testing.T) {
	m := NewRenderer(BaseCenter, 9, "").Render(models.DetectionTable{})

	if m.Center != BaseCenter {
		t.Errorf("Expected center %v, got %v", BaseCenter, m.Center)
	}
	if len(m.Points) != 0 {
		t.Errorf("Expected zero markers, got %d", len(m.Points))
	}
	if !m.Placeholder {
		t.Error("Expected an empty table to render the placeholder view")
	}
}

func TestRenderPreservesOrderAndPayload(t *testing.T) {
	table := models.DetectionTable{
		{Name: "a", Lat: 36.1, Lon: 22.1, Prediction: 0, Image: "a.png"},
		{Name: "b", Lat: 36.2, Lon: 22.2, Prediction: 0.5, Image: "b.png"},
		{Name: "c", Lat: 36.3, Lon: 22.3, Prediction: 1, Image: "c.png"},
	}

	m := NewRenderer(BaseCenter, 9, "").Render(table)
	if len(m.Points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(m.Points))
	}
	for i, p := range m.Points {
		if p.CustomData.Name != table[i].Name || p.Lat != table[i].Lat || p.Lon != table[i].Lon {
			t.Errorf("Point %d does not match detection: %+v vs %+v", i, p, table[i])
		}
		if p.CustomData.Image != table[i].Image {
			t.Errorf("Point %d: expected image %s, got %s", i, table[i].Image, p.CustomData.Image)
		}
	}

	if m.Points[0].Intensity != 0 || m.Points[1].Intensity != 0.5 || m.Points[2].Intensity != 1 {
		t.Errorf("Expected intensities 0, 0.5, 1, got %v, %v, %v",
			m.Points[0].Intensity, m.Points[1].Intensity, m.Points[2].Intensity)
	}
	if m.Points[0].Color != "#0d0887" || m.Points[2].Color != "#f0f921" {
		t.Errorf("Expected scale endpoints, got %s and %s", m.Points[0].Color, m.Points[2].Color)
	}
}

func TestRenderUniformScores(t *testing.T) {
	table := models.DetectionTable{{Name: "a", Prediction: 1}, {Name: "b", Prediction: 1}}
	m := NewRenderer(BaseCenter, 9, "").Render(table)

	for _, p := range m.Points {
		if p.Intensity != 1 {
			t.Errorf("Expected intensity 1 for uniform scores, got %v", p.Intensity)
		}
	}
}

func TestPayloadPositionalOrder(t *testing.T) {
	p := PayloadOf(models.Detection{Name: "MV Test", Lat: 36.5, Lon: 22.7, Prediction: 0.92, Image: "img/ship_2.png"})
	got := p.Positional()

	if len(got) != 5 {
		t.Fatalf("Expected 5 fields, got %d", len(got))
	}
	if got[0] != "MV Test" || got[1] != 36.5 || got[2] != 22.7 || got[3] != 0.92 || got[4] != "img/ship_2.png" {
		t.Errorf("Unexpected positional payload %v", got)
	}
}

func TestColorForClamps(t *testing.T) {
	if ColorFor(-1) != ColorFor(0) || ColorFor(2) != ColorFor(1) {
		t.Error("Expected out-of-range intensities to clamp")
	}
}

func TestRenderNonFiniteScoresDoNotPanic(t *testing.T) {
	if ColorFor(math.NaN()) != ColorFor(0) {
		t.Error("Expected NaN intensity to map to the low end of the scale")
	}
	if ColorFor(math.Inf(1)) != ColorFor(1) || ColorFor(math.Inf(-1)) != ColorFor(0) {
		t.Error("Expected infinite intensities to clamp")
	}

	table := models.DetectionTable{
		{Name: "a", Lat: 1, Lon: 1, Prediction: math.Inf(1)},
		{Name: "b", Lat: 1, Lon: 1, Prediction: 0.5},
		{Name: "c", Lat: 1, Lon: 1, Prediction: math.NaN()},
	}
	m := NewRenderer(BaseCenter, 9, "").Render(table)
	if len(m.Points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(m.Points))
	}
	for _, p := range m.Points {
		if math.IsNaN(p.Intensity) || p.Intensity < 0 || p.Intensity > 1 {
			t.Errorf("Expected intensity in [0,1], got %v for %s", p.Intensity, p.CustomData.Name)
		}
	}
}

func TestWithOverlayCopies(t *testing.T) {
	base := NewRenderer(BaseCenter, 9, "").Placeholder()
	withAIS := base.WithOverlay([]OverlayPoint{{Name: "ALPHA", Lat: 36.5, Lon: 22.7}})

	if len(base.Overlay) != 0 {
		t.Error("Expected original model untouched")
	}
	if len(withAIS.Overlay) != 1 {
		t.Errorf("Expected one overlay point, got %d", len(withAIS.Overlay))
	}
}
