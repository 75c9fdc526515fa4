package espn

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/config"
	"github.com/wonny/dugout/backend/pkg/httputil"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// Client scrapes player position hints from ESPN player pages. Used only
// as a fallback for players with no tagged game history.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	enabled    bool
	logger     *logger.Logger
}

func NewClient(cfg config.ESPNConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.NewWithTimeout(log, 10*time.Second).WithRetry(2, 500*time.Millisecond),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		enabled:    cfg.Enabled,
		logger:     log.WithField("module", "espn"),
	}
}

// positionNames maps ESPN's spelled-out positions to scoring group tags
var positionNames = map[string]string{
	"catcher":           "C",
	"first baseman":     "1B",
	"second baseman":    "2B",
	"third baseman":     "3B",
	"shortstop":         "SS",
	"left fielder":      "LF",
	"center fielder":    "CF",
	"right fielder":     "RF",
	"outfielder":        "OF",
	"designated hitter": "DH",
	"pitcher":           "P",
	"starting pitcher":  "P",
	"relief pitcher":    "P",
}

// PositionHint returns the player's listed position abbreviation, or ""
// when the page carries none.
func (c *Client) PositionHint(ctx context.Context, playerID contracts.PlayerID) (string, error) {
	if !c.enabled {
		return "", nil
	}

	url := fmt.Sprintf("%s/mlb/player/_/id/%d", c.baseURL, playerID)

	resp, err := c.httpClient.GetWithHeaders(ctx, url, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse player page failed: %w", err)
	}

	hint := extractPosition(doc)
	if hint != "" {
		c.logger.WithFields(map[string]interface{}{
			"player_id": playerID,
			"position":  hint,
		}).Debug("Scraped position hint")
	}
	return hint, nil
}

// extractPosition walks the player header list items looking for a
// recognized position name.
func extractPosition(doc *goquery.Document) string {
	found := ""
	doc.Find(".PlayerHeader__Team_Info li, .PlayerHeader__Bio_List li").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if tag, ok := positionNames[text]; ok {
			found = tag
			return false
		}
		return true
	})
	return found
}
