package adapters

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	swarmhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
	"github.com/javiersolana/crypto-swarm/pkg/util"
)

// GitHub resolves repo entities (address "owner/repo"). A push within
// the activity window becomes one event keyed by the push timestamp,
// so the same push never produces a second signal.
type GitHub struct {
	client  *swarmhttp.Client
	log     *logger.Logger
	baseURL string
	token   string
	budget  rate.Limit
	window  time.Duration
}

func NewGitHub(client *swarmhttp.Client, log *logger.Logger, baseURL, token string) *GitHub {
	return &GitHub{
		client:  client,
		log:     log,
		baseURL: baseURL,
		token:   token,
		budget:  rate.Limit(1),
		window:  30 * 24 * time.Hour,
	}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) RateBudget() rate.Limit { return g.budget }

type githubRepo struct {
	FullName string `json:"full_name"`
	Stars    int    `json:"stargazers_count"`
	PushedAt string `json:"pushed_at"`
	Archived bool   `json:"archived"`
}

func (g *GitHub) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if g.token != "" {
		headers["Authorization"] = "token " + g.token
	}

	var repo githubRepo
	err := g.client.SendAndParse(ctx, &swarmhttp.RequestOptions{
		Method:  "GET",
		URL:     fmt.Sprintf("%s/repos/%s", g.baseURL, entity.Address),
		Headers: headers,
	}, &repo)
	if err != nil {
		return nil, err
	}

	activity := &models.EntityActivity{Entity: entity.Key()}
	if repo.Archived {
		return activity, nil
	}

	pushed, ok := util.ParseTime(repo.PushedAt)
	if !ok || time.Since(pushed) > g.window {
		return activity, nil
	}

	activity.Events = append(activity.Events, models.EventRecord{
		ID:        fmt.Sprintf("push:%s:%d", repo.FullName, pushed.Unix()),
		Entity:    entity.Key(),
		Subject:   entity.Address,
		Kind:      models.EventRepoPush,
		Timestamp: pushed,
		Amount:    float64(repo.Stars),
		Label:     repo.FullName,
	})
	return activity, nil
}
