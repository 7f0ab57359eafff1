package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrContextNotFound = errors.New("conversation context not found")
	ErrNilContext      = errors.New("conversation context is nil")
)

const (
	defaultStoreKeyPrefix = "trip:conversation:"
	defaultStoreTTL       = 72 * time.Hour
	maxResponseSizeBytes  = 2 << 20
)

// Store mirrors committed conversation contexts so a restarted process can
// resume them.
type Store interface {
	Load(ctx context.Context, conversationID string) (*ConversationContext, error)
	Save(ctx context.Context, c *ConversationContext) error
	Delete(ctx context.Context, conversationID string) error
}

// NoopStore keeps nothing. It is used when no session backend is configured.
type NoopStore struct{}

func (NoopStore) Load(context.Context, string) (*ConversationContext, error) {
	return nil, ErrContextNotFound
}

func (NoopStore) Save(context.Context, *ConversationContext) error { return nil }

func (NoopStore) Delete(context.Context, string) error { return nil }

type StoreOption func(*UpstashRedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashRedisStore) {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) {
		s.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashRedisStore keeps conversation contexts in Upstash Redis over its
// REST API. Each command is a JSON array POSTed to the base URL.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

type UpstashRedisConfig struct {
	URL     string        `split_words:"true" required:"true"`
	Token   string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
	TTL     time.Duration `envconfig:"TTL" default:"72h"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultStoreTTL
	}

	store := &UpstashRedisStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultStoreKeyPrefix,
		ttl:        ttl,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, conversationID string) (*ConversationContext, error) {
	key, err := s.key(conversationID)
	if err != nil {
		return nil, err
	}

	result, err := s.exec(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	if !result.Exists() || result.Type == gjson.Null {
		return nil, fmt.Errorf("%w: %s", ErrContextNotFound, conversationID)
	}

	var c ConversationContext
	if err := json.Unmarshal([]byte(result.String()), &c); err != nil {
		return nil, fmt.Errorf("unmarshal conversation context: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation context loaded from store: %w", err)
	}
	return &c, nil
}

func (s *UpstashRedisStore) Save(ctx context.Context, c *ConversationContext) error {
	if c == nil {
		return ErrNilContext
	}
	key, err := s.key(c.ConversationID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal conversation context: %w", err)
	}

	cmd := []any{"SET", key, string(payload)}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}
	_, err = s.exec(ctx, cmd...)
	return err
}

func (s *UpstashRedisStore) Delete(ctx context.Context, conversationID string) error {
	key, err := s.key(conversationID)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, "DEL", key)
	return err
}

func (s *UpstashRedisStore) key(conversationID string) (string, error) {
	if strings.TrimSpace(conversationID) == "" {
		return "", ErrInvalidConversationID
	}
	return s.keyPrefix + conversationID, nil
}

// exec runs one command and returns its "result" member.
func (s *UpstashRedisStore) exec(ctx context.Context, command ...any) (gjson.Result, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return gjson.Result{}, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, errors.New("decode redis response: invalid json")
	}
	if msg := gjson.GetBytes(raw, "error"); msg.Exists() && msg.String() != "" {
		return gjson.Result{}, errors.New(msg.String())
	}
	return gjson.GetBytes(raw, "result"), nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if ttl%time.Second != 0 {
		seconds++
	}
	if seconds <= 0 {
		return 1
	}
	return int64(seconds)
}
