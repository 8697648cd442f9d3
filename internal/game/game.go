// Package game holds the turn and deck state machine. It is pure logic
// over Room values; all I/O and concurrency control live with the caller,
// which is expected to run these transitions inside a store transaction.
package game

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/partydeck/core/internal/model"
)

var (
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotStarted     = errors.New("game not started")
	ErrEmptyPool      = errors.New("question pool is empty")
	ErrTransitioning  = errors.New("another transition is in flight")
	ErrFinished       = errors.New("deck is exhausted")
)

// Rand is the subset of math/rand used for draws. *rand.Rand satisfies it;
// tests inject a seeded source.
type Rand interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// DefaultRand draws from the shared math/rand source, which is safe for
// concurrent use.
var DefaultRand Rand = globalRand{}

// Pool is the full question set of a room: the selected pack's questions
// plus the room's custom questions.
func Pool(room *model.Room, pack model.Pack) []model.Question {
	pool := make([]model.Question, 0, len(pack.Questions)+len(room.CustomQuestions))
	pool = append(pool, pack.Questions...)
	pool = append(pool, room.CustomQuestions...)
	return pool
}

// Start moves a lobby into play: draws the first question uniformly at
// random and hands the first turn to a random player.
func Start(room *model.Room, pack model.Pack, rng Rand) error {
	if room.IsStarted {
		return ErrAlreadyStarted
	}
	pool := Pool(room, pack)
	if len(pool) == 0 {
		return ErrEmptyPool
	}

	SortPlayers(room)

	first := pool[rng.Intn(len(pool))]
	room.IsStarted = true
	room.IsFlipped = false
	room.IsFinished = false
	room.CurrentQuestion = first.Text
	room.AnsweredQuestions = []string{first.ID}
	room.TotalQuestions = len(pool)
	room.CurrentPlayerIndex = rng.Intn(len(room.Players))
	return nil
}

// Reveal flips the current card face up. Idempotent.
func Reveal(room *model.Room) {
	room.IsFlipped = true
}

// Advance draws the next unanswered question and passes the turn. A second
// Advance racing with one already in flight is rejected, not queued. When
// the pool is exhausted the room transitions to Finished and stays around
// for players to view the result.
func Advance(room *model.Room, pack model.Pack, rng Rand) error {
	if !room.IsStarted {
		return ErrNotStarted
	}
	if room.IsFinished {
		return ErrFinished
	}
	if room.IsTransitioning {
		return ErrTransitioning
	}
	room.IsTransitioning = true
	room.IsFlipped = false

	pool := Pool(room, pack)
	available := pool[:0:0]
	for _, q := range pool {
		if !answered(room, q.ID) {
			available = append(available, q)
		}
	}

	if len(available) == 0 {
		room.IsFinished = true
		room.IsTransitioning = false
		return nil
	}

	next := available[rng.Intn(len(available))]
	room.CurrentQuestion = next.Text
	room.AnsweredQuestions = append(room.AnsweredQuestions, next.ID)
	room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.Players)
	room.IsTransitioning = false
	return nil
}

func answered(room *model.Room, id string) bool {
	for _, a := range room.AnsweredQuestions {
		if a == id {
			return true
		}
	}
	return false
}

// RemovePlayer drops the roster entry at idx and repairs the turn index.
// The caller must destroy the room if the roster becomes empty.
func RemovePlayer(room *model.Room, idx int) {
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	RenormalizeTurnIndex(room, idx)
}

// RenormalizeTurnIndex repairs CurrentPlayerIndex after the player that
// held position removedIdx was removed. Applied identically for voluntary
// disconnects, kicks and sweep evictions.
func RenormalizeTurnIndex(room *model.Room, removedIdx int) {
	n := len(room.Players)
	if n == 0 {
		return
	}
	switch {
	case removedIdx == room.CurrentPlayerIndex:
		// The active player left. The list shifted, so the same index now
		// points at the next logical player; wrap if they were last. The
		// incoming player must not inherit a revealed card.
		room.CurrentPlayerIndex = room.CurrentPlayerIndex % n
		room.IsFlipped = false
	case removedIdx < room.CurrentPlayerIndex:
		room.CurrentPlayerIndex--
	}
	if room.CurrentPlayerIndex >= n {
		room.CurrentPlayerIndex = n - 1
	}
	if room.CurrentPlayerIndex < 0 {
		room.CurrentPlayerIndex = 0
	}
}

// SortPlayers orders the roster hosts-first, preserving join order within
// each group, so index 0 is always the deterministic promotion target.
func SortPlayers(room *model.Room) {
	sort.SliceStable(room.Players, func(i, j int) bool {
		return room.Players[i].IsHost && !room.Players[j].IsHost
	})
}

// PromoteHost hands the host role to the lowest surviving index when no
// player holds it. Returns the promoted player, or nil if a host remains.
func PromoteHost(room *model.Room) *model.Player {
	for i := range room.Players {
		if room.Players[i].IsHost {
			return nil
		}
	}
	if len(room.Players) == 0 {
		return nil
	}
	room.Players[0].IsHost = true
	return &room.Players[0]
}
