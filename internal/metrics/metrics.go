package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the interview counters. A nil *Recorder records nothing.
type Recorder struct {
	SessionsOpened     prometheus.Counter
	SessionsRejected   *prometheus.CounterVec
	SessionsFinalized  *prometheus.CounterVec
	Turns              *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	AnswerScores       prometheus.Histogram
	FinalAverage       prometheus.Histogram
}

func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_opened_total",
			Help: "Interview sessions that passed validation and started",
		}),
		SessionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_sessions_rejected_total",
			Help: "Interview connections refused before the session started",
		}, []string{"reason"}),
		SessionsFinalized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_sessions_finalized_total",
			Help: "Finalized interview sessions by trigger",
		}, []string{"trigger"}),
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_turns_total",
			Help: "Interviewer utterances by kind",
		}, []string{"kind"}),
		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_generation_failures_total",
			Help: "Language model failures that fell back to deterministic text",
		}, []string{"purpose"}),
		AnswerScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_answer_score",
			Help:    "Per-answer scores",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		FinalAverage: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_average_score",
			Help:    "Average score of finalized sessions",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
	}
}

func (r *Recorder) SessionOpened() {
	if r == nil {
		return
	}
	r.SessionsOpened.Inc()
}

func (r *Recorder) SessionRejected(reason string) {
	if r == nil {
		return
	}
	r.SessionsRejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) SessionFinalized(trigger string, average *float64) {
	if r == nil {
		return
	}
	r.SessionsFinalized.WithLabelValues(trigger).Inc()
	if average != nil {
		r.FinalAverage.Observe(*average)
	}
}

func (r *Recorder) Turn(kind string) {
	if r == nil {
		return
	}
	r.Turns.WithLabelValues(kind).Inc()
}

func (r *Recorder) GenerationFailed(purpose string) {
	if r == nil {
		return
	}
	r.GenerationFailures.WithLabelValues(purpose).Inc()
}

func (r *Recorder) AnswerScored(score int) {
	if r == nil {
		return
	}
	r.AnswerScores.Observe(float64(score))
}

// Handler exposes the given registry.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
