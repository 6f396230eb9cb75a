package metrics

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/rediskey"
)

type EventType int

const (
	MessageCreateDelete EventType = iota
	MessageEdit
	InteractionResponse
	RoleChange
	ChannelChange
	InvalidRequest
	MatchReported
	TotalRequest //must be the last metric
)

var MetricTypeStrings = []string{
	"message_create_delete",
	"message_edit",
	"interaction_response",
	"role_change",
	"channel_change",
	"invalid_request",
	"match_reported",
	"total_request", //must be the last request
}

func (e EventType) String() string {
	return MetricTypeStrings[e]
}

// counted reports whether the event is a discord API call that belongs in the total.
func (e EventType) counted() bool {
	return e != MatchReported && e != TotalRequest
}

type Collector struct {
	counterDesc *prometheus.Desc
	matchesDesc *prometheus.Desc
	client      *redis.Client
	nodeID      string
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.counterDesc
	ch <- c.matchesDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	total := int64(0)
	for i, str := range MetricTypeStrings {
		if i == int(TotalRequest) {
			ch <- prometheus.MustNewConstMetric(c.counterDesc, prometheus.CounterValue, float64(total), c.nodeID, str)
			continue
		}
		v, err := c.client.Get(context.Background(), rediskey.RequestsByType(str)).Result()
		if !errors.Is(err, redis.Nil) && err != nil {
			log.Error().Err(err).Str("type", str).Msg("failed to read request counter")
			continue
		}
		num := int64(0)
		if v != "" {
			num, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				log.Error().Err(err).Str("type", str).Msg("malformed request counter")
				num = 0
			}
		}
		ch <- prometheus.MustNewConstMetric(c.counterDesc, prometheus.CounterValue, float64(num), c.nodeID, str)
		if EventType(i).counted() {
			total += num
		}
	}

	if matches := rediskey.GetTotalMatches(context.Background(), c.client); matches != rediskey.NotFound {
		ch <- prometheus.MustNewConstMetric(c.matchesDesc, prometheus.GaugeValue, float64(matches))
	}
}

func RecordDiscordRequests(client *redis.Client, requestType EventType, num int64) {
	typeStr := MetricTypeStrings[requestType]
	client.IncrBy(context.Background(), rediskey.RequestsByType(typeStr), num)
}

func NewCollector(client *redis.Client, nodeID string) *Collector {
	return &Collector{
		counterDesc: prometheus.NewDesc("discord_requests_by_node_and_type", "Number of discord requests made, differentiated by node/type", []string{"nodeID", "type"}, nil),
		matchesDesc: prometheus.NewDesc("tenmans_matches_reported", "Number of matches archived across all seasons", nil, nil),
		client:      client,
		nodeID:      nodeID,
	}
}
