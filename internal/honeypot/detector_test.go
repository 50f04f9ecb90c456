package honeypot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func msg(user, channel, content string, at time.Time, inHoneypot bool) Message {
	return Message{
		GuildID:    "guild1",
		UserID:     user,
		ChannelID:  channel,
		Content:    content,
		Timestamp:  at,
		InHoneypot: inHoneypot,
	}
}

func TestShouldReportThreeChannelsWithHoneypot(t *testing.T) {
	now := time.Now()
	queue := []Message{
		msg("troll", "a", "free nitro", now, false),
		msg("troll", "b", "free nitro", now, false),
	}
	incoming := msg("troll", "c", "free nitro", now, true)

	if !shouldReport(queue, incoming) {
		t.Fatalf("expected a report for 3 channels with honeypot involvement")
	}
}

func TestShouldReportWithoutHoneypotChannel(t *testing.T) {
	now := time.Now()
	queue := []Message{
		msg("troll", "a", "free nitro", now, false),
		msg("troll", "b", "free nitro", now, false),
	}
	incoming := msg("troll", "c", "free nitro", now, false)

	if shouldReport(queue, incoming) {
		t.Fatalf("no honeypot channel involved, must not report")
	}
}

func TestShouldReportTooFewChannels(t *testing.T) {
	now := time.Now()
	queue := []Message{
		msg("troll", "a", "free nitro", now, true),
	}
	incoming := msg("troll", "b", "free nitro", now, true)

	if shouldReport(queue, incoming) {
		t.Fatalf("2 distinct channels must not report")
	}
}

func TestShouldReportIgnoresOtherUsersAndContent(t *testing.T) {
	now := time.Now()
	queue := []Message{
		msg("other", "a", "free nitro", now, true),
		msg("troll", "b", "different text", now, true),
		msg("troll", "c", "free nitro", now, false),
	}
	incoming := msg("troll", "d", "free nitro", now, true)

	// only channels c and d match user+content
	if shouldReport(queue, incoming) {
		t.Fatalf("messages from other users or with other content must not count")
	}
}

func TestShouldReportCountsDistinctChannelsOnce(t *testing.T) {
	now := time.Now()
	queue := []Message{
		msg("troll", "a", "free nitro", now, true),
		msg("troll", "a", "free nitro", now, true),
		msg("troll", "a", "free nitro", now, true),
	}
	incoming := msg("troll", "b", "free nitro", now, false)

	if shouldReport(queue, incoming) {
		t.Fatalf("repeated posts in one channel count as one channel")
	}
}

func TestEvictOldReturnsExpiredHoneypotMessages(t *testing.T) {
	now := time.Now()
	queue := []Message{
		msg("u1", "a", "old", now.Add(-2*time.Minute), true),
		msg("u2", "b", "old", now.Add(-90*time.Second), false),
		msg("u3", "c", "fresh", now.Add(-10*time.Second), true),
	}

	evicted := evictOld(&queue, now)

	if len(queue) != 1 || queue[0].UserID != "u3" {
		t.Fatalf("expected only the fresh message to remain, got %v", queue)
	}
	if len(evicted) != 1 || evicted[0].UserID != "u1" {
		t.Fatalf("expected only the expired honeypot message, got %v", evicted)
	}
}

func TestEvictOldKeepsEverythingInsideWindow(t *testing.T) {
	now := time.Now()
	queue := []Message{
		msg("u1", "a", "x", now.Add(-30*time.Second), true),
		msg("u2", "b", "y", now.Add(-5*time.Second), false),
	}

	evicted := evictOld(&queue, now)
	if len(evicted) != 0 {
		t.Fatalf("nothing should be evicted, got %v", evicted)
	}
	if len(queue) != 2 {
		t.Fatalf("queue must be untouched, got %d entries", len(queue))
	}
}

func TestHandleMessageTimestampsStayOrdered(t *testing.T) {
	var (
		clockMu sync.Mutex
		ticks   int
	)
	base := time.Now()
	d := &Detector{
		channels: NewChannelSet(),
		botID:    "bot",
		clock: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			ticks++
			return base.Add(time.Duration(ticks) * time.Millisecond)
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.HandleMessage(context.Background(), &discordgo.Message{
				GuildID:   "guild1",
				ChannelID: "c1",
				Content:   "hello",
				Author:    &discordgo.User{ID: fmt.Sprintf("u%d", i)},
			})
		}()
	}
	wg.Wait()

	if len(d.queue) != 32 {
		t.Fatalf("expected 32 queued messages, got %d", len(d.queue))
	}
	for i := 1; i < len(d.queue); i++ {
		if d.queue[i].Timestamp.Before(d.queue[i-1].Timestamp) {
			t.Fatalf("timestamps out of append order at index %d", i)
		}
	}
}

func TestHandleMessageSkipsOnlyOwnMessages(t *testing.T) {
	d := &Detector{channels: NewChannelSet(), botID: "bot", clock: time.Now}

	d.HandleMessage(context.Background(), &discordgo.Message{
		GuildID:   "guild1",
		ChannelID: "c1",
		Content:   "spam",
		Author:    &discordgo.User{ID: "bot", Bot: true},
	})
	if len(d.queue) != 0 {
		t.Fatalf("own messages must be ignored")
	}

	d.HandleMessage(context.Background(), &discordgo.Message{
		GuildID:   "guild1",
		ChannelID: "c1",
		Content:   "spam",
		Author:    &discordgo.User{ID: "otherbot", Bot: true},
	})
	if len(d.queue) != 1 {
		t.Fatalf("messages from other bots must be observed")
	}
}

func TestChannelSet(t *testing.T) {
	set := NewChannelSet()

	if set.Contains("c1") {
		t.Fatalf("empty set must not contain anything")
	}
	set.Set("c1")
	if !set.Contains("c1") {
		t.Fatalf("expected c1 after Set")
	}
	set.Remove("c1")
	if set.Contains("c1") {
		t.Fatalf("expected c1 gone after Remove")
	}
}
