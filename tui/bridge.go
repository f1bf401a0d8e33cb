// ABOUTME: Adapter that turns coordinator callbacks into bubbletea messages
// ABOUTME: The coordinator runs off the UI goroutine, so every update goes through Program.Send
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
)

// PayloadMsg carries a payload the coordinator decided to show.
type PayloadMsg struct {
	Payload *models.Payload
	Source  loader.Source
}

// StatusMsg updates the status line.
type StatusMsg struct {
	Status loader.Status
}

// BusyMsg toggles the loading indicator.
type BusyMsg struct {
	Busy bool
}

// FallbackMsg replaces the primary regions with the offline message.
type FallbackMsg struct {
	Err error
}

// Bridge implements loader.Renderer and loader.View for a running program.
// Messages sent before Attach are discarded.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes updates to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.SetSend(p.Send)
}

// SetSend routes updates to fn.
func (b *Bridge) SetSend(fn func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = fn
}

func (b *Bridge) dispatch(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) Render(payload *models.Payload, source loader.Source) {
	b.dispatch(PayloadMsg{Payload: payload, Source: source})
}

func (b *Bridge) SetStatus(s loader.Status) {
	b.dispatch(StatusMsg{Status: s})
}

func (b *Bridge) SetBusy(busy bool) {
	b.dispatch(BusyMsg{Busy: busy})
}

func (b *Bridge) ShowFallback(err error) {
	b.dispatch(FallbackMsg{Err: err})
}

// FilterState holds the filters the coordinator reads at request time.
type FilterState struct {
	mu      sync.Mutex
	filters models.Filters
}

func NewFilterState(f models.Filters) *FilterState {
	return &FilterState{filters: f}
}

func (s *FilterState) Get() models.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

func (s *FilterState) Set(f models.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
}
