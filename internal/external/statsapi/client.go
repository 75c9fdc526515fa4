package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/config"
	"github.com/wonny/dugout/backend/pkg/httputil"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// Client fetches per-game logs from the MLB Stats API.
// ⭐ SSOT: Stats API 호출은 이 패키지에서만
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient builds a stats API client. Retry is handled by the caller,
// so the HTTP layer runs single-shot; the shared limiter spaces every
// outbound request regardless of caller parallelism.
func NewClient(cfg config.StatsAPIConfig, limiter httputil.Limiter, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.NewWithTimeout(log, 15*time.Second).DisableRetry().WithLimiter(limiter),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     log.WithField("module", "statsapi"),
	}
}

// FetchGameLogs returns a player's game logs for one season, ordered by
// game time. Unknown upstream stat names are dropped before the logs
// cross into the pipeline.
func (c *Client) FetchGameLogs(ctx context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, error) {
	url := fmt.Sprintf(
		"%s/api/v1/people/%d/stats?stats=gameLog&season=%d&group=hitting,pitching",
		c.baseURL, playerID, season,
	)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, &contracts.IngestionError{
			PlayerID: playerID, Season: season,
			Reason: "request failed", Retriable: true, Err: err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &contracts.IngestionError{
			PlayerID: playerID, Season: season,
			Reason:    fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Retriable: httputil.IsRetryableStatus(resp.StatusCode),
		}
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, &contracts.IngestionError{
			PlayerID: playerID, Season: season,
			Reason: "read response body failed", Retriable: true, Err: err,
		}
	}

	tl, err := parseGameLogs(body, playerID, season)
	if err != nil {
		return nil, &contracts.IngestionError{
			PlayerID: playerID, Season: season,
			Reason: "parse response failed", Retriable: false, Err: err,
		}
	}

	tl.Sort()
	c.logger.WithFields(map[string]interface{}{
		"player_id": playerID,
		"season":    int(season),
		"games":     len(tl),
	}).Debug("Fetched game logs")
	return tl, nil
}

type gameLogResponse struct {
	Stats []statGroup `json:"stats"`
}

type statGroup struct {
	Group struct {
		DisplayName string `json:"displayName"`
	} `json:"group"`
	Splits []gameLogSplit `json:"splits"`
}

type gameLogSplit struct {
	Date string `json:"date"`
	Game struct {
		GameNumber int `json:"gameNumber"` // 1 or 2 on doubleheader days
	} `json:"game"`
	Position struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"position"`
	Stat map[string]interface{} `json:"stat"`
}

// hittingStatNames maps upstream hitting stat names onto the scoring schema
var hittingStatNames = map[string]string{
	"atBats":      "at_bats",
	"hits":        "hits",
	"doubles":     "doubles",
	"triples":     "triples",
	"homeRuns":    "home_runs",
	"baseOnBalls": "walks",
	"hitByPitch":  "hit_by_pitch",
	"runs":        "runs",
	"rbi":         "rbis",
	"stolenBases": "stolen_bases",
	"strikeOuts":  "strikeouts",
}

var pitchingStatNames = map[string]string{
	"inningsPitched": "innings_pitched",
	"strikeOuts":     "strikeouts",
	"wins":           "wins",
	"saves":          "saves",
	"hits":           "hits_allowed",
	"baseOnBalls":    "walks_allowed",
	"homeRuns":       "home_runs_allowed",
	"earnedRuns":     "earned_runs",
}

func parseGameLogs(body []byte, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, error) {
	var parsed gameLogResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal game log response: %w", err)
	}

	splitsByGroup := make(map[string][]gameLogSplit, 2)
	for _, group := range parsed.Stats {
		name := group.Group.DisplayName
		if name != "hitting" && name != "pitching" {
			continue
		}
		splitsByGroup[name] = append(splitsByGroup[name], group.Splits...)
	}

	// A two-way player, or a position player mopping up on the mound,
	// shows the same game in both groups. One game keeps one stat line,
	// scored under the player's dominant group; the off-group line would
	// duplicate (date, seq) and carry stats outside that game's schema.
	// Its position tag still counts toward the player's tally.
	order := []string{"hitting", "pitching"}
	if len(splitsByGroup["pitching"]) > len(splitsByGroup["hitting"]) {
		order = []string{"pitching", "hitting"}
	}

	type gameKey struct {
		date string
		seq  int
	}
	dominant := make(map[gameKey]int)

	var tl contracts.Timeline
	for groupIdx, groupName := range order {
		names := hittingStatNames
		if groupName == "pitching" {
			names = pitchingStatNames
		}

		for _, split := range splitsByGroup[groupName] {
			date, err := time.Parse("2006-01-02", split.Date)
			if err != nil {
				return nil, fmt.Errorf("bad game date %q: %w", split.Date, err)
			}

			seq := split.Game.GameNumber - 1
			if seq < 0 {
				seq = 0
			}

			// Cross-group collision only. A duplicate within one group is
			// corrupt upstream data and stays in for Validate to reject.
			if groupIdx > 0 {
				if idx, ok := dominant[gameKey{split.Date, seq}]; ok {
					if pos := split.Position.Abbreviation; pos != "" && !containsTag(tl[idx].Positions, pos) {
						tl[idx].Positions = append(tl[idx].Positions, pos)
					}
					continue
				}
			}

			g := contracts.GameLog{
				PlayerID: playerID,
				Season:   season,
				Date:     date,
				Seq:      seq,
				Stats:    translateStats(split.Stat, names),
			}
			if pos := split.Position.Abbreviation; pos != "" {
				g.Positions = []string{pos}
			}
			if groupIdx == 0 {
				dominant[gameKey{split.Date, seq}] = len(tl)
			}
			tl = append(tl, g)
		}
	}
	return tl, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func translateStats(raw map[string]interface{}, names map[string]string) map[string]float64 {
	out := make(map[string]float64, len(names))
	for upstream, local := range names {
		v, ok := raw[upstream]
		if !ok {
			continue
		}
		out[local] = toFloat(v, local == "innings_pitched")
	}
	return out
}

// toFloat coerces the API's mixed number/string stat values. Innings
// pitched arrives as "5.2" meaning 5 innings and 2 outs, not 5.2.
func toFloat(v interface{}, innings bool) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		if innings {
			return parseInnings(val)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func parseInnings(s string) float64 {
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return whole
	}
	outs, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || outs > 2 {
		return whole
	}
	return whole + outs/3
}
