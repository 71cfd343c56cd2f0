// Package monitor exposes the progress of running experiments over HTTP.
//
// The server implements types.Recorder. Learner diagnostics are captured
// between episodes by ObserveEpisode, so requests never touch a learner
// while it is being trained.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zeu5/tabular-marl/types"
)

// number of most used states kept per learner
const usageLimit = 100

// LearnerInfo is the last captured state of a learner
type LearnerInfo struct {
	Experiment string      `json:"experiment"`
	Agent      string      `json:"agent"`
	Size       int         `json:"size"`
	Actions    int         `json:"actions"`
	Episodes   int         `json:"episodes"`
	LastReturn float64     `json:"last_return"`
	Updated    time.Time   `json:"updated"`
	Usage      []UsageInfo `json:"-"`
}

type UsageInfo struct {
	State string `json:"state"`
	Hash  string `json:"hash"`
	Count int    `json:"count"`
}

type learnerKey struct {
	experiment string
	agent      string
}

type Server struct {
	Addr   string
	server *http.Server

	lock     *sync.Mutex
	learners map[learnerKey]types.Learner
	info     map[learnerKey]*LearnerInfo

	registry *prometheus.Registry
	metrics  *metrics
}

var _ types.Recorder = &Server{}

func NewServer(addr string) *Server {
	registry := prometheus.NewRegistry()
	s := &Server{
		Addr:     addr,
		lock:     new(sync.Mutex),
		learners: make(map[learnerKey]types.Learner),
		info:     make(map[learnerKey]*LearnerInfo),
		registry: registry,
		metrics:  newMetrics(registry),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/learners", s.handleLearners)
	r.GET("/learners/:experiment/:agent", s.handleLearner)
	r.GET("/learners/:experiment/:agent/usage", s.handleUsage)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Watch registers the agents of the experiment and records its episodes
func (s *Server) Watch(e *types.Experiment) {
	for _, a := range e.Agents() {
		s.Register(e.Name, a.Name, a.Learner())
	}
	e.AddRecorder(s)
}

// Register captures the learner, it must not be training concurrently
func (s *Server) Register(experiment, agent string, l types.Learner) {
	s.lock.Lock()
	defer s.lock.Unlock()
	key := learnerKey{experiment, agent}
	s.learners[key] = l
	s.info[key] = &LearnerInfo{Experiment: experiment, Agent: agent}
	s.capture(key)
}

// capture reads the learner, lock must be held
func (s *Server) capture(key learnerKey) {
	l := s.learners[key]
	info := s.info[key]
	info.Size = l.Size()
	if a, ok := l.(interface{ Actions() int }); ok {
		info.Actions = a.Actions()
	}
	info.Updated = time.Now()

	usage := l.StateUsage()
	sort.SliceStable(usage, func(i, j int) bool { return usage[i].Count > usage[j].Count })
	if len(usage) > usageLimit {
		usage = usage[:usageLimit]
	}
	info.Usage = make([]UsageInfo, len(usage))
	for i, u := range usage {
		info.Usage[i] = UsageInfo{
			State: fmt.Sprintf("%v", u.State),
			Hash:  strconv.FormatUint(u.State.Hash(), 16),
			Count: u.Count,
		}
	}
}

// ObserveEpisode is called by the experiment after every episode
func (s *Server) ObserveEpisode(summary *types.EpisodeSummary) {
	mode := "training"
	if summary.Evaluation {
		mode = "evaluation"
	}
	outcome := "horizon"
	if summary.Terminal {
		outcome = "terminal"
	}
	s.metrics.episodes.WithLabelValues(summary.Experiment, mode, outcome).Inc()
	s.metrics.timesteps.WithLabelValues(summary.Experiment).Observe(float64(summary.Timesteps))

	s.lock.Lock()
	defer s.lock.Unlock()
	for agent, r := range summary.Returns {
		s.metrics.returns.WithLabelValues(summary.Experiment, agent, mode).Set(r)
		key := learnerKey{summary.Experiment, agent}
		info, ok := s.info[key]
		if !ok {
			continue
		}
		info.Episodes++
		info.LastReturn = r
		s.capture(key)
	}
	for agent, size := range summary.TableSizes {
		s.metrics.tableSize.WithLabelValues(summary.Experiment, agent).Set(float64(size))
	}
}

func (s *Server) lookup(c *gin.Context) (LearnerInfo, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	info, ok := s.info[learnerKey{c.Param("experiment"), c.Param("agent")}]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown learner"})
		return LearnerInfo{}, false
	}
	return *info, true
}

func (s *Server) handleLearners(c *gin.Context) {
	s.lock.Lock()
	result := make([]LearnerInfo, 0, len(s.info))
	for _, info := range s.info {
		result = append(result, *info)
	}
	s.lock.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Experiment != result[j].Experiment {
			return result[i].Experiment < result[j].Experiment
		}
		return result[i].Agent < result[j].Agent
	})
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleLearner(c *gin.Context) {
	info, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleUsage(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	info, ok := s.lookup(c)
	if !ok {
		return
	}
	usage := info.Usage
	if len(usage) > limit {
		usage = usage[:limit]
	}
	c.JSON(http.StatusOK, usage)
}

// Start serves until the context is cancelled
func (s *Server) Start(ctx context.Context) {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("monitor server: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.server.Shutdown(sCtx)
	}()
}
