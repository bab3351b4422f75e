package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"glyco/defs"
)

const (
	entriesEndpoint = "api/v1/entries/sgv.json"

	// One day's worth at 5-minute sampling.
	CountLimit = 288
)

// Source is any upstream that can serve recent CGM readings.
type Source interface {
	Readings(ctx context.Context, maxCount int) ([]defs.Reading, error)
}

// Client fetches sensor entries from a nightscout site.
type Client struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
	token   string
	unit    string
}

// entry is the wire shape of one nightscout sgv document.
type entry struct {
	SGV       float64 `json:"sgv"`
	Date      int64   `json:"date"`
	Direction string  `json:"direction"`
}

func NewClient(cfg defs.NightscoutConfig, unit string, logger *zap.Logger) *Client {
	return &Client{
		client:  &http.Client{},
		logger:  logger,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		unit:    unit,
	}
}

// Readings fetches the latest entries and transforms them to the
// configured unit. Nightscout serves sgv values in mg/dL.
func (c *Client) Readings(ctx context.Context, maxCount int) ([]defs.Reading, error) {
	if maxCount > CountLimit {
		return nil, fmt.Errorf("window too large: maxCount %d", maxCount)
	}

	params := url.Values{
		"count": {strconv.Itoa(maxCount)},
	}
	if c.token != "" {
		params.Set("token", c.token)
	}

	c.logger.Debug("making fetch request",
		zap.String("url", c.baseURL),
		zap.Int("maximum count", maxCount),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+entriesEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		c.logger.Debug("failed to decode entries response")
		return nil, err
	}

	c.logger.Debug("received entries from nightscout",
		zap.Int("count", len(entries)),
	)

	rs := make([]defs.Reading, len(entries))
	for i, e := range entries {
		rs[i] = c.transform(e)
	}

	return rs, nil
}

func (c *Client) transform(e entry) defs.Reading {
	v := e.SGV
	if v == 0 {
		// Sensor gap entries carry no sgv.
		v = defs.Missing()
	} else if c.unit == defs.UnitMmol {
		v /= defs.MmolConvFactor
	}

	return defs.Reading{
		Time:  time.UnixMilli(e.Date),
		Value: v,
		Trend: e.Direction,
	}
}
