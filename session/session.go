// Package session holds one dashboard session's interaction state and applies
// user commands to it one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boyangli/sentinelmap-dashboard/ais"
	"github.com/boyangli/sentinelmap-dashboard/dateindex"
	"github.com/boyangli/sentinelmap-dashboard/inference"
	"github.com/boyangli/sentinelmap-dashboard/inspector"
	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/metrics"
	"github.com/boyangli/sentinelmap-dashboard/models"
	"github.com/boyangli/sentinelmap-dashboard/navigator"
	"github.com/boyangli/sentinelmap-dashboard/render"
)

// ErrSuperseded is returned to a run whose result was discarded because a
// newer run was requested while it was in flight.
var ErrSuperseded = errors.New("session: run superseded by a newer run")

// Runner executes an inference run for a date
type Runner interface {
	Run(ctx context.Context, date string) (models.DetectionTable, error)
}

// Publisher receives an event for every completed run
type Publisher interface {
	PublishRun(ctx context.Context, event *models.RunEvent) error
}

// Deps are the collaborators a session is built from. Index and Runner are required.
type Deps struct {
	Index     *dateindex.Index
	Runner    Runner
	Renderer  *render.Renderer
	Inspector *inspector.Inspector
	Publisher Publisher
	AIS       []models.AISRecord
	AISWindow time.Duration
}

// View is the complete view model after a command
type View struct {
	State      State                 `json:"state"`
	Date       string                `json:"date"`
	Dates      []string              `json:"dates"`
	CanAdvance bool                  `json:"can_advance"`
	CanRetreat bool                  `json:"can_retreat"`
	RunID      string                `json:"run_id,omitempty"`
	RunDate    string                `json:"run_date,omitempty"`
	Table      models.DetectionTable `json:"table"`
	Map        render.Model          `json:"map"`
	Report     inspector.Report      `json:"report"`
	Image      string                `json:"image"`
	AISOn      bool                  `json:"ais_on"`
	Error      string                `json:"error,omitempty"`
}

// Session owns one NavigatorState/DetectionTable pair. Commands are applied
// one at a time; a run releases the lock while the predictor works, and a
// sequence number decides whether its result may still be applied.
type Session struct {
	mu sync.Mutex

	index     *dateindex.Index
	runner    Runner
	renderer  *render.Renderer
	inspector *inspector.Inspector
	publisher Publisher
	ais       []models.AISRecord
	aisWindow time.Duration
	log       zerolog.Logger

	nav       *navigator.Navigator
	state     State
	table     models.DetectionTable
	model     render.Model
	runID     string
	runDate   string
	report    inspector.Report
	lastErr   error
	aisOn     bool
	seq       uint64
	cancelRun context.CancelFunc
}

// New creates a session positioned on the index's first date
func New(deps Deps) *Session {
	s := &Session{
		index:     deps.Index,
		runner:    deps.Runner,
		renderer:  deps.Renderer,
		inspector: deps.Inspector,
		publisher: deps.Publisher,
		ais:       deps.AIS,
		aisWindow: deps.AISWindow,
		log:       logging.Component("session"),
		nav:       navigator.New(deps.Index.Dates()),
		report:    inspector.Report{Rows: []inspector.Attribute{}},
	}
	if s.renderer == nil {
		s.renderer = render.NewRenderer(render.BaseCenter, render.DefaultZoom, render.DefaultStyle)
	}
	if s.inspector == nil {
		s.inspector = inspector.New()
	}
	s.model = s.renderer.Placeholder()
	if _, ok := s.nav.Current(); ok {
		s.state = DateSelected
	}
	return s
}

// View returns the current view model
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Dispatch applies one command. Rejected commands (unknown date, failed or
// superseded run) return the unchanged or current view alongside the error.
func (s *Session) Dispatch(ctx context.Context, cmd Command) (View, error) {
	s.log.Debug().Str("command", cmd.command()).Msg("Dispatch")

	if _, ok := cmd.(RunInference); ok {
		return s.run(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch c := cmd.(type) {
	case SelectDate:
		if err := s.nav.Select(c.Date); err != nil {
			return s.viewLocked(), err
		}
		s.dateChangedLocked()
	case AdvanceDate:
		s.nav.Advance()
		s.dateChangedLocked()
	case RetreatDate:
		s.nav.Retreat()
		s.dateChangedLocked()
	case SelectPoint:
		// Points only exist once a run has been rendered
		if s.state != RunComplete && s.state != Inspecting {
			s.log.Debug().Str("state", s.state.String()).Msg("Ignoring selection without a completed run")
			break
		}
		s.report = s.inspector.Inspect(c.Event)
		if c.Event != nil {
			s.state = Inspecting
		} else {
			s.state = RunComplete
		}
	case ToggleAIS:
		s.aisOn = c.On
	default:
		return s.viewLocked(), fmt.Errorf("session: unsupported command %T", cmd)
	}
	return s.viewLocked(), nil
}

// dateChangedLocked leaves the displayed table alone: it stays until the next
// successful run replaces it. A failed run's error belongs to the date it ran for.
func (s *Session) dateChangedLocked() {
	if s.cancelRun != nil {
		return
	}
	s.lastErr = nil
	if _, ok := s.nav.Current(); ok {
		s.state = DateSelected
	}
}

func (s *Session) run(ctx context.Context) (View, error) {
	s.mu.Lock()
	date, _ := s.nav.Current()
	s.seq++
	seq := s.seq
	if s.cancelRun != nil {
		s.cancelRun()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	s.state = RunRequested
	s.lastErr = nil
	s.mu.Unlock()
	defer cancel()

	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("date", date).Logger()
	log.Info().Uint64("seq", seq).Msg("📤 Run requested")

	table, err := s.runner.Run(runCtx, date)
	if errors.Is(err, inference.ErrUnresolvedDate) {
		log.Warn().Msg("⚠️  Date resolves to no tiles, showing empty table")
		table, err = models.DetectionTable{}, nil
	}

	view, err := s.apply(seq, runID, date, table, err)
	if errors.Is(err, ErrSuperseded) {
		log.Info().Uint64("seq", seq).Msg("Discarding superseded run result")
		return view, err
	}
	if err != nil {
		return view, err
	}

	metrics.DetectionsLastRun.Set(float64(len(table)))
	s.publish(ctx, log, runID, date, table)
	return view, nil
}

// apply records a finished run unless a newer run has started since
func (s *Session) apply(seq uint64, runID, date string, table models.DetectionTable, runErr error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		return s.viewLocked(), ErrSuperseded
	}
	s.cancelRun = nil

	if runErr != nil {
		s.state = Idle
		s.lastErr = runErr
		return s.viewLocked(), runErr
	}

	s.table = table
	s.model = s.renderer.Render(table)
	s.runID = runID
	s.runDate = date
	s.report = inspector.Report{Rows: []inspector.Attribute{}}
	s.state = RunComplete
	return s.viewLocked(), nil
}

func (s *Session) publish(ctx context.Context, log zerolog.Logger, runID, date string, table models.DetectionTable) {
	if s.publisher == nil {
		return
	}
	tiles, _ := s.index.Tiles(date)
	event := &models.RunEvent{
		RunID:       runID,
		Date:        date,
		Tiles:       tiles,
		Detections:  table,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishRun(ctx, event); err != nil {
		metrics.RunEventsPublished.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("❌ Failed to publish run event")
		return
	}
	metrics.RunEventsPublished.WithLabelValues("ok").Inc()
}

func (s *Session) viewLocked() View {
	date, _ := s.nav.Current()
	v := View{
		State:      s.state,
		Date:       date,
		Dates:      s.nav.Dates(),
		CanAdvance: !s.nav.AtEnd(),
		CanRetreat: !s.nav.AtStart(),
		RunID:      s.runID,
		RunDate:    s.runDate,
		Table:      s.table,
		Map:        s.model,
		Report:     s.report,
		Image:      s.report.Image,
		AISOn:      s.aisOn,
	}
	if v.Table == nil {
		v.Table = models.DetectionTable{}
	}
	if s.lastErr != nil {
		v.Error = s.lastErr.Error()
	}
	if s.aisOn {
		v.Map = v.Map.WithOverlay(s.overlayLocked(date))
	}
	return v
}

// overlayLocked averages AIS reports around the acquisition time of the
// date's first tile. Dates without a recorded timestamp get no overlay.
func (s *Session) overlayLocked(date string) []render.OverlayPoint {
	tiles, ok := s.index.Tiles(date)
	if !ok || len(tiles) == 0 {
		return nil
	}
	at, ok := s.index.Timestamp(tiles[0])
	if !ok {
		return nil
	}

	vessels := ais.Overlay(s.ais, at, s.aisWindow)
	points := make([]render.OverlayPoint, len(vessels))
	for i, v := range vessels {
		points[i] = render.OverlayPoint{Name: v.Name, MMSI: v.MMSI, Lat: v.Lat, Lon: v.Lon}
	}
	return points
}
