package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received. An empty reply
// sends nothing.
type CommandHandler func(command string) string

type chatMessage struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

type chatUpdate struct {
	UpdateID int          `json:"update_id"`
	Message  *chatMessage `json:"message"`
}

var errUpdatesRejected = errors.New("getUpdates rejected")

const (
	minPollBackoff = time.Second
	maxPollBackoff = time.Minute
)

// StartPolling answers bot commands from the configured chat until ctx is
// cancelled. Transport errors back off exponentially up to a minute.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: time.Duration(t.pollTimeout()+5) * time.Second}
	if t.Client != nil && t.Client.Transport != nil {
		client.Transport = t.Client.Transport
	}

	offset := 0
	backoff := minPollBackoff
	for ctx.Err() == nil {
		updates, err := t.fetchUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] polling commands: %v (retry in %v)", err, backoff)
			sleepCtx(ctx, backoff)
			backoff = min(backoff*2, maxPollBackoff)
			continue
		}
		backoff = minPollBackoff
		offset = t.dispatch(updates, offset, handler)
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) fetchUpdates(ctx context.Context, client *http.Client, offset int) ([]chatUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d&allowed_updates=%%5B%%22message%%22%%5D",
		t.endpoint("getUpdates"), offset, t.pollTimeout())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool         `json:"ok"`
		Description string       `json:"description"`
		Result      []chatUpdate `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("%w: %s", errUpdatesRejected, result.Description)
	}
	return result.Result, nil
}

// dispatch runs handler for each command in updates and returns the next
// offset. Messages from other chats and plain text are acknowledged but
// not answered.
func (t *TelegramNotifier) dispatch(updates []chatUpdate, offset int, handler CommandHandler) int {
	for _, u := range updates {
		if u.UpdateID >= offset {
			offset = u.UpdateID + 1
		}
		text, ok := t.command(u)
		if !ok {
			continue
		}
		log.Printf("[INFO] received command: %s", text)
		if reply := handler(text); reply != "" {
			if err := t.Send(reply); err != nil {
				log.Printf("[ERROR] send reply to %q: %v", text, err)
			}
		}
	}
	return offset
}

func (t *TelegramNotifier) command(u chatUpdate) (string, bool) {
	if u.Message == nil {
		return "", false
	}
	if t.ChatID != "" && strconv.FormatInt(u.Message.Chat.ID, 10) != t.ChatID {
		log.Printf("[WARN] ignoring message from chat %d", u.Message.Chat.ID)
		return "", false
	}
	text := strings.TrimSpace(u.Message.Text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	return text, true
}

// pollTimeout is the long-poll wait in seconds, 30 unless set.
func (t *TelegramNotifier) pollTimeout() int {
	if t.PollTimeout > 0 {
		return t.PollTimeout
	}
	return 30
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
