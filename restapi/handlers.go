package restapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"code-sourcery.de/time-elapsed/common"
	"code-sourcery.de/time-elapsed/config"
	"code-sourcery.de/time-elapsed/elapsed"
	"code-sourcery.de/time-elapsed/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIdHeader = "X-Request-ID"
const requestIdKey = "requestId"
const maxRequestIdLength = 128

type api struct {
	config  atomic.Pointer[config.Config]
	metrics *metrics.Metrics
}

// IntervalRequest names the interval either by two timestamps or by its fields.
type IntervalRequest struct {
	Start    string            `json:"start"`
	End      string            `json:"end"`
	Interval *elapsed.Interval `json:"interval"`
}

type CheckRequest struct {
	IntervalRequest
	// number or numeric string
	Amount json.RawMessage `json:"amount"`
	Unit   string          `json:"unit"`
}

type CheckResponse struct {
	Elapsed   bool    `json:"elapsed"`
	Actual    int     `json:"actual"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Interval  string  `json:"interval"`
	TotalDays int     `json:"total_days"`
	Threshold string  `json:"threshold,omitempty"`
	RequestId string  `json:"request_id"`
}

type ThresholdResponse struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

func requestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIdHeader)
		if id == "" || len(id) > maxRequestIdLength || strings.ContainsAny(id, " \t\r\n") {
			id = uuid.New().String()
		}
		c.Set(requestIdKey, id)
		c.Header(requestIdHeader, id)
		c.Next()
	}
}

func (a *api) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": common.APPLICATION_VERSION})
}

func (a *api) units(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"units": elapsed.ValidTimeUnits, "default": a.config.Load().GetDefaultUnit()})
}

func (a *api) listThresholds(c *gin.Context) {
	result := []ThresholdResponse{}
	for _, threshold := range a.config.Load().GetThresholds() {
		result = append(result, ThresholdResponse{Name: threshold.Name, Amount: threshold.Amount, Unit: threshold.Unit.String()})
	}
	c.JSON(http.StatusOK, gin.H{"thresholds": result})
}

func (a *api) checkElapsed(c *gin.Context) {

	var req CheckRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		a.badRequest(c, "Failed to bind request to object: "+err.Error())
		return
	}

	svc, err := a.checkerFor(&req.IntervalRequest)
	if err != nil {
		a.respondError(c, err)
		return
	}

	unit := req.Unit
	if unit == "" {
		unit = a.config.Load().GetDefaultUnit()
	}

	var amountText string
	if err := json.Unmarshal(req.Amount, &amountText); err != nil {
		// not a JSON string, so a number or garbage; the checker decides
		amountText = string(req.Amount)
	}

	result, err := svc.HasElapsedString(amountText, unit)
	if err != nil {
		a.respondError(c, err)
		return
	}
	amount, _ := elapsed.ParseAmount(amountText)
	timeUnit, _ := elapsed.ParseTimeUnit(unit)
	a.respondResult(c, svc, result, amount, timeUnit, "")
}

func (a *api) checkThreshold(c *gin.Context) {

	name := c.Param("name")
	threshold := a.config.Load().GetThreshold(name)
	if threshold == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown threshold '" + name + "'", "request_id": c.GetString(requestIdKey)})
		return
	}

	var req IntervalRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		a.badRequest(c, "Failed to bind request to object: "+err.Error())
		return
	}

	svc, err := a.checkerFor(&req)
	if err != nil {
		a.respondError(c, err)
		return
	}
	result, err := threshold.Check(svc)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.respondResult(c, svc, result, threshold.Amount, threshold.Unit, threshold.Name)
}

// bindOptionalJSON treats an empty body like "{}".
func bindOptionalJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// checkerFor builds a checker from the request. A request naming neither
// timestamps nor an interval yields a checker without interval, so the
// checker itself reports what is missing.
func (a *api) checkerFor(req *IntervalRequest) (*elapsed.Service, error) {

	svc := elapsed.New()
	if req.Interval != nil {
		if err := req.Interval.Validate(); err != nil {
			return nil, err
		}
		return svc, svc.SetInterval(*req.Interval)
	}
	if req.Start == "" && req.End == "" {
		return svc, nil
	}
	if req.Start == "" || req.End == "" {
		return nil, errors.New("both 'start' and 'end' are required")
	}
	loc := a.config.Load().GetLocation()
	start, err := common.ParseTimestamp(req.Start, loc)
	if err != nil {
		return nil, err
	}
	end, err := common.ParseTimestamp(req.End, loc)
	if err != nil {
		return nil, err
	}
	log.Debugf("Checking interval %s -> %s", common.TimeToString(start), common.TimeToString(end))
	return svc, svc.SetInterval(elapsed.Between(start, end))
}

func (a *api) respondResult(c *gin.Context, svc *elapsed.Service, result bool, amount float64, unit elapsed.TimeUnit, threshold string) {

	iv, _ := svc.Interval()
	a.metrics.CheckEvaluated(unit.String(), result)
	log.Debug("Request " + c.GetString(requestIdKey) + ": " + iv.String() + " >= " + strconv.FormatFloat(amount, 'f', -1, 64) +
		" " + unit.String() + " => " + strconv.FormatBool(result))

	c.JSON(http.StatusOK, CheckResponse{
		Elapsed:   result,
		Actual:    iv.Actual(unit),
		Amount:    amount,
		Unit:      unit.String(),
		Interval:  iv.String(),
		TotalDays: iv.TotalDays,
		Threshold: threshold,
		RequestId: c.GetString(requestIdKey),
	})
}

// respondError maps value errors to 400 and logic errors to 422. Anything
// else did not come from the checker and is a malformed request.
func (a *api) respondError(c *gin.Context, err error) {

	var checkErr *elapsed.Error
	if !errors.As(err, &checkErr) {
		a.badRequest(c, err.Error())
		return
	}
	a.metrics.CheckRejected(checkErr.Kind.String())

	status := http.StatusUnprocessableEntity
	if checkErr.Kind == elapsed.KindValue {
		status = http.StatusBadRequest
	}
	log.Debug("Request " + c.GetString(requestIdKey) + " rejected: " + err.Error())
	c.JSON(status, gin.H{
		"error":      checkErr.Error(),
		"kind":       checkErr.Kind.String(),
		"code":       int(checkErr.Code),
		"request_id": c.GetString(requestIdKey),
	})
}

func (a *api) badRequest(c *gin.Context, msg string) {
	log.Debug("Request " + c.GetString(requestIdKey) + " is malformed: " + msg)
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "request_id": c.GetString(requestIdKey)})
}
