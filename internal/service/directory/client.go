package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/teamhub/notification-service/pkg/circuitbreaker"
)

// UserInfo is the contact record resolved from the user directory.
type UserInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Timezone  string `json:"timezone,omitempty"`
}

func (u *UserInfo) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Directory resolves recipient contact info. Lookups are network calls
// and may fail; callers treat failure as "no contact info".
type Directory interface {
	GetUserInfo(ctx context.Context, userID uuid.UUID) (*UserInfo, error)
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type client struct {
	baseURL string
	http    *http.Client
	cache   *gocache.Cache
	cb      *circuitbreaker.CircuitBreaker
}

// NewClient builds an HTTP directory client with an in-memory TTL cache
// to bound lookup cost during delivery bursts.
func NewClient(cfg Config) Directory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   gocache.New(ttl, 10*time.Minute),
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "user-directory",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

func (c *client) GetUserInfo(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	key := userID.String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*UserInfo), nil
	}

	var info *UserInfo
	err := c.cb.Execute(func() error {
		fetched, err := c.fetch(ctx, userID)
		if err != nil {
			return err
		}
		info = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, info)
	return info, nil
}

func (c *client) fetch(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	url := fmt.Sprintf("%s/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("user %s not found in directory", userID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	return &info, nil
}
