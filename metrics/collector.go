// Package metrics exports proposal workflow state as Prometheus metrics.
// Gauges are computed from the store at scrape time; mutation counts come
// from store change events.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semproposal/proposal"
)

const namespace = "semproposal"

// SaveStats reports autosave outcomes; storage.Autosaver.Stats satisfies it.
type SaveStats func() (saves, failures int, lastErr error)

// Collector is a prometheus.Collector over a proposal engine.
type Collector struct {
	engine    proposal.Engine
	selectors *proposal.Selectors
	saveStats SaveStats

	mutations *prometheus.CounterVec

	proposals     *prometheus.Desc
	confidence    *prometheus.Desc
	completion    *prometheus.Desc
	words         *prometheus.Desc
	sections      *prometheus.Desc
	openQuestions *prometheus.Desc
	activeNudges  *prometheus.Desc
	autosaves     *prometheus.Desc

	mu          sync.Mutex
	unsubscribe func()
}

// Option configures a Collector.
type Option func(*Collector)

// WithSaveStats exports autosave counts.
func WithSaveStats(fn SaveStats) Option {
	return func(c *Collector) { c.saveStats = fn }
}

// NewCollector creates a collector for engine. Call Start to count mutations.
func NewCollector(engine proposal.Engine, opts ...Option) *Collector {
	c := &Collector{
		engine:    engine,
		selectors: proposal.NewSelectors(engine),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Store mutations by operation.",
		}, []string{"op"}),
		proposals: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "proposals"),
			"Proposals by status.",
			[]string{"status"}, nil),
		confidence: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "proposal", "overall_confidence"),
			"Mean section confidence of a proposal.",
			[]string{"proposal_id", "client"}, nil),
		completion: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "proposal", "completion_percent"),
			"Share of approved sections, 0-100.",
			[]string{"proposal_id"}, nil),
		words: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "proposal", "words"),
			"Total word count of a proposal.",
			[]string{"proposal_id"}, nil),
		sections: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sections"),
			"Sections across all proposals by approval state.",
			[]string{"state"}, nil),
		openQuestions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "open_questions"),
			"Undismissed open questions by priority.",
			[]string{"priority"}, nil),
		activeNudges: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_nudges"),
			"Undismissed nudges by priority.",
			[]string{"priority"}, nil),
		autosaves: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "autosaves_total"),
			"Snapshot autosaves by result.",
			[]string{"result"}, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to store events. Calling Start twice is a no-op.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.engine.Subscribe(func(ev proposal.Event) {
		c.mutations.WithLabelValues(string(ev.Op)).Inc()
	})
}

// Stop unsubscribes from the store.
func (c *Collector) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.mutations.Describe(ch)
	ch <- c.proposals
	ch <- c.confidence
	ch <- c.completion
	ch <- c.words
	ch <- c.sections
	ch <- c.openQuestions
	ch <- c.activeNudges
	if c.saveStats != nil {
		ch <- c.autosaves
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mutations.Collect(ch)

	byStatus := make(map[proposal.Status]int)
	byState := make(map[proposal.ApprovalState]int)
	questions := make(map[proposal.Priority]int)
	nudges := make(map[proposal.Priority]int)

	for _, p := range c.engine.GetAllProposals() {
		byStatus[p.Status]++
		for _, s := range p.Sections {
			byState[s.ApprovalState]++
		}
		for prio, n := range proposal.CountByPriority(c.selectors.ActiveQuestions(p.ID, nil)) {
			questions[prio] += n
		}
		for prio, n := range proposal.CountByPriority(c.selectors.ActiveNudges(p.ID, nil)) {
			nudges[prio] += n
		}

		ch <- prometheus.MustNewConstMetric(c.confidence, prometheus.GaugeValue, p.OverallConfidence, p.ID, p.ClientName)
		ch <- prometheus.MustNewConstMetric(c.completion, prometheus.GaugeValue, float64(proposal.CompletionPercentage(p)), p.ID)
		ch <- prometheus.MustNewConstMetric(c.words, prometheus.GaugeValue, float64(p.TotalWordCount), p.ID)
	}

	for _, status := range allStatuses {
		ch <- prometheus.MustNewConstMetric(c.proposals, prometheus.GaugeValue, float64(byStatus[status]), string(status))
	}
	for _, state := range allApprovalStates {
		ch <- prometheus.MustNewConstMetric(c.sections, prometheus.GaugeValue, float64(byState[state]), string(state))
	}
	for _, prio := range allPriorities {
		ch <- prometheus.MustNewConstMetric(c.openQuestions, prometheus.GaugeValue, float64(questions[prio]), string(prio))
		ch <- prometheus.MustNewConstMetric(c.activeNudges, prometheus.GaugeValue, float64(nudges[prio]), string(prio))
	}

	if c.saveStats != nil {
		saves, failures, _ := c.saveStats()
		ch <- prometheus.MustNewConstMetric(c.autosaves, prometheus.CounterValue, float64(saves), "success")
		ch <- prometheus.MustNewConstMetric(c.autosaves, prometheus.CounterValue, float64(failures), "failure")
	}
}

var (
	allStatuses = []proposal.Status{
		proposal.StatusDraft, proposal.StatusInReview, proposal.StatusPendingApproval,
		proposal.StatusApproved, proposal.StatusRejected, proposal.StatusSent,
		proposal.StatusAccepted, proposal.StatusDeclined,
	}
	allApprovalStates = []proposal.ApprovalState{
		proposal.ApprovalDraft, proposal.ApprovalPending, proposal.ApprovalApproved,
		proposal.ApprovalRejected, proposal.ApprovalNeedsRevision,
	}
	allPriorities = []proposal.Priority{proposal.PriorityHigh, proposal.PriorityMedium, proposal.PriorityLow}
)
