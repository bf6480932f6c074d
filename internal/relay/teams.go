package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"
)

const teamsThemeColor = "0078D4"

// TeamsChannel 通过 incoming webhook 投递 MessageCard
type TeamsChannel struct {
	cfg    config.TeamsConfig
	client *http.Client
}

// NewTeamsChannel 创建 Teams 通道
func NewTeamsChannel(cfg config.TeamsConfig, client *http.Client) *TeamsChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &TeamsChannel{cfg: cfg, client: client}
}

// Name 通道名称
func (c *TeamsChannel) Name() string {
	return constants.RelayChannelTeams
}

// TeamsCard MessageCard 载荷
type TeamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Summary    string         `json:"summary"`
	ThemeColor string         `json:"themeColor"`
	Sections   []TeamsSection `json:"sections"`
}

// TeamsSection 卡片分段
type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Text             string      `json:"text,omitempty"`
}

// TeamsFact 卡片键值
type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Send 推送卡片到 webhook
func (c *TeamsChannel) Send(ctx context.Context, msg Message) error {
	webhook := strings.TrimSpace(c.cfg.WebhookURL)
	if webhook == "" {
		return ErrChannelNotConfigured
	}
	payload, err := json.Marshal(BuildTeamsCard(msg))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: teams: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return deliveryError(c.Name(), resp.StatusCode, string(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// BuildTeamsCard 将通知转换为 MessageCard
func BuildTeamsCard(msg Message) TeamsCard {
	title := msg.Title
	if msg.Icon != "" {
		title = msg.Icon + " " + title
	}
	facts := make([]TeamsFact, 0, len(msg.Fields)+len(msg.Trailer)+1)
	for _, field := range msg.Fields {
		facts = append(facts, TeamsFact{Name: field.Name + ":", Value: field.Value})
	}
	for _, field := range msg.Trailer {
		facts = append(facts, TeamsFact{Name: field.Name + ":", Value: field.Value})
	}
	facts = append(facts, TeamsFact{Name: "Submitted:", Value: msg.Submitted()})

	card := TeamsCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    msg.Summary,
		ThemeColor: teamsThemeColor,
		Sections: []TeamsSection{{
			ActivityTitle:    title,
			ActivitySubtitle: msg.Subtitle,
			Facts:            facts,
		}},
	}
	if msg.Section != nil {
		card.Sections = append(card.Sections, TeamsSection{
			ActivityTitle: msg.Section.Name,
			Text:          msg.Section.Value,
		})
	}
	return card
}
