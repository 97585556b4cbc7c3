package ratelimit

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"code-sourcery.de/time-elapsed/elapsed"
	"code-sourcery.de/time-elapsed/logger"
	"code-sourcery.de/time-elapsed/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var log = logger.GetLogger("ratelimit")

var limitPattern = regexp.MustCompile(`^(\d+)/(\d+)([smhdw])$`)

// clients idle for longer than this are forgotten once the table gets large
const maxClients = 10_000
const clientIdleTimeout = 10 * time.Minute

// Limit allows Threshold requests per Period.
type Limit struct {
	Threshold int
	Amount    int
	Unit      elapsed.TimeUnit
}

// Parse reads "<threshold>/<amount><unit>" where unit is one of s, m, h, d, w,
// e.g. "60/1m". An empty or blank string yields (nil, nil).
func Parse(limit string) (*Limit, error) {
	if strings.TrimSpace(limit) == "" {
		return nil, nil
	}
	match := limitPattern.FindStringSubmatch(strings.TrimSpace(limit))
	if match == nil {
		return nil, errors.New("Invalid rate limit string: '" + limit + "'")
	}
	threshold, err := strconv.Atoi(match[1])
	if err != nil || threshold < 1 {
		return nil, errors.New("Invalid rate limit string (threshold): '" + limit + "'")
	}
	amount, err := strconv.Atoi(match[2])
	if err != nil || amount < 1 {
		return nil, errors.New("Invalid rate limit string (interval): '" + limit + "'")
	}
	unit, err := shortUnit(match[3])
	if err != nil {
		return nil, err
	}
	return &Limit{Threshold: threshold, Amount: amount, Unit: unit}, nil
}

func shortUnit(unit string) (elapsed.TimeUnit, error) {
	switch unit {
	case "s":
		return elapsed.Seconds, nil
	case "m":
		return elapsed.Minutes, nil
	case "h":
		return elapsed.Hours, nil
	case "d":
		return elapsed.Days, nil
	case "w":
		return elapsed.Weeks, nil
	default:
		return 0, errors.New("Invalid time unit: '" + unit + "'")
	}
}

func (l *Limit) Seconds() int {
	switch l.Unit {
	case elapsed.Seconds:
		return l.Amount
	case elapsed.Minutes:
		return elapsed.MinutesToSeconds(l.Amount)
	case elapsed.Hours:
		return elapsed.MinutesToSeconds(elapsed.HoursToMinutes(l.Amount))
	case elapsed.Days:
		return elapsed.MinutesToSeconds(elapsed.HoursToMinutes(elapsed.DaysToHours(l.Amount)))
	case elapsed.Weeks:
		return elapsed.MinutesToSeconds(elapsed.HoursToMinutes(elapsed.DaysToHours(l.Amount * elapsed.DaysPerWeek)))
	default:
		panic("Internal error, unhandled switch/case: " + l.Unit.String())
	}
}

func (l *Limit) Period() time.Duration {
	return time.Duration(l.Seconds()) * time.Second
}

func (l *Limit) String() string {
	return strconv.Itoa(l.Threshold) + " requests per " + strconv.Itoa(l.Amount) + " " + l.Unit.String()
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter applies one Limit to every client individually.
type Limiter struct {
	limit   *Limit
	every   rate.Limit
	mutex   sync.Mutex
	clients map[string]*clientLimiter
}

func NewLimiter(limit *Limit) *Limiter {
	return &Limiter{
		limit:   limit,
		every:   rate.Every(limit.Period() / time.Duration(limit.Threshold)),
		clients: make(map[string]*clientLimiter),
	}
}

func (l *Limiter) Allow(client string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := time.Now()
	entry, ok := l.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.every, l.limit.Threshold)}
		l.clients[client] = entry
	}
	entry.lastSeen = now
	if len(l.clients) > maxClients {
		l.evictIdle(now.Add(-clientIdleTimeout))
	}
	return entry.limiter.AllowN(now, 1)
}

func (l *Limiter) evictIdle(cutOff time.Time) {
	for client, entry := range l.clients {
		if entry.lastSeen.Before(cutOff) {
			delete(l.clients, client)
		}
	}
}

// Middleware rejects requests exceeding the limit with 429.
func (l *Limiter) Middleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if !l.Allow(client) {
			log.Warn("Rate limit (" + l.limit.String() + ") exceeded by " + client)
			if m != nil {
				m.RateLimitDropped.Inc()
			}
			c.AbortWithStatusJSON(429, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
