package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	swarmhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
	"github.com/javiersolana/crypto-swarm/pkg/util"
)

// CryptoPanic resolves news feed entities. The entity address is the
// token symbol whose coverage is tracked; each post becomes a news
// event whose amount is the net vote balance.
type CryptoPanic struct {
	client  *swarmhttp.Client
	log     *logger.Logger
	baseURL string
	apiKey  string
	budget  rate.Limit
}

func NewCryptoPanic(client *swarmhttp.Client, log *logger.Logger, baseURL, apiKey string) *CryptoPanic {
	return &CryptoPanic{
		client:  client,
		log:     log,
		baseURL: baseURL,
		apiKey:  apiKey,
		budget:  rate.Limit(1),
	}
}

func (c *CryptoPanic) Name() string { return "cryptopanic" }

func (c *CryptoPanic) RateBudget() rate.Limit { return c.budget }

type panicPost struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	Votes       struct {
		Positive int `json:"positive"`
		Negative int `json:"negative"`
	} `json:"votes"`
}

type panicResponse struct {
	Results []panicPost `json:"results"`
}

func (c *CryptoPanic) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	var resp panicResponse
	err := c.client.SendAndParse(ctx, &swarmhttp.RequestOptions{
		Method: "GET",
		URL:    c.baseURL + "/posts/",
		QueryParams: map[string][]string{
			"auth_token": {c.apiKey},
			"currencies": {strings.ToUpper(entity.Address)},
			"kind":       {"news"},
			"regions":    {"en"},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	activity := &models.EntityActivity{Entity: entity.Key()}
	for _, post := range resp.Results {
		if post.ID == 0 {
			continue
		}
		published := util.ParseTimeDefault(post.PublishedAt, time.Now())
		activity.Events = append(activity.Events, models.EventRecord{
			ID:        fmt.Sprintf("news:%d", post.ID),
			Entity:    entity.Key(),
			Subject:   strings.ToUpper(entity.Address),
			Kind:      models.EventNewsItem,
			Timestamp: published,
			Amount:    float64(post.Votes.Positive - post.Votes.Negative),
			Label:     util.Truncate(post.Title, 120),
		})
	}
	return activity, nil
}
