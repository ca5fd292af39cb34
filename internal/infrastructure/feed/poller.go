package feed

import (
	"context"
	"encoding/binary"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
)

// PollOrigin marks events synthesized by StorePoller.
const PollOrigin = "store-poll"

const DefaultPollInterval = time.Second

// StorePoller notices writes made by other processes sharing the store when
// no message broker connects them. It fingerprints the stored notes on every
// tick and publishes an update event onto the bus when the fingerprint moves.
type StorePoller struct {
	repo     ports.NoteRepository
	bus      ports.NoteEventBus
	interval time.Duration
	now      func() int64
}

func NewStorePoller(repo ports.NoteRepository, bus ports.NoteEventBus, interval time.Duration) *StorePoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &StorePoller{repo: repo, bus: bus, interval: interval, now: domain.NowMillis}
}

// Run polls until ctx is done. Store errors are logged and the previous
// fingerprint kept, so a transient failure does not produce a refresh.
func (p *StorePoller) Run(ctx context.Context) error {
	last, err := p.fingerprint(ctx)
	if err != nil && ctx.Err() == nil {
		slog.Warn("store_poll_failed", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		current, err := p.fingerprint(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("store_poll_failed", "error", err)
			continue
		}
		if current == last {
			continue
		}
		last = current
		slog.Debug("store_changed_externally")
		p.bus.Publish(domain.NoteEvent{Kind: domain.NoteUpdated, Origin: PollOrigin, At: p.now()})
	}
}

// fingerprint hashes ids, timestamps, bookmark flags and labels. Content
// edits always move the timestamp.
func (p *StorePoller) fingerprint(ctx context.Context) (uint64, error) {
	notes, err := p.repo.ListNewestFirst(ctx)
	if err != nil {
		return 0, err
	}

	digest := xxhash.New()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = digest.Write(buf[:])
	}
	for _, note := range notes {
		writeInt(note.ID)
		writeInt(note.Timestamp)
		if note.Bookmarked {
			writeInt(1)
		} else {
			writeInt(0)
		}
		for _, category := range note.Categories {
			_, _ = digest.WriteString(category)
			_, _ = digest.Write([]byte{0})
		}
		_, _ = digest.Write([]byte{1})
	}
	return digest.Sum64(), nil
}
